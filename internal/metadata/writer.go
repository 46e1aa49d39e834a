package metadata

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Write writes the header line followed by one rendered line per record.
// An empty header omits the header line.
func Write(w io.Writer, header string, tmpl *Template, records []Record) error {
	bw := bufio.NewWriter(w)

	if header != "" {
		if _, err := fmt.Fprintf(bw, "%s\n", header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, r := range records {
		if _, err := fmt.Fprintf(bw, "%s\n", tmpl.Render(r)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush metadata: %w", err)
	}
	return nil
}

// WriteFile creates (or truncates) path and writes the table into it.
func WriteFile(path, header string, tmpl *Template, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metadata file %s: %w", path, err)
	}

	if err := Write(f, header, tmpl, records); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close metadata file %s: %w", path, err)
	}
	return nil
}
