package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"voice-slicer/internal/config"
	"voice-slicer/internal/metadata"
	"voice-slicer/internal/transcribe"

	"github.com/spf13/cobra"
)

var transcribeFlags struct {
	dir      string
	endpoint string
	model    string
	speaker  string
	header   string
	template string
	file     string
	workers  int
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Transcribe sliced clips and write the metadata table",
	Long: `transcribe sends every .wav clip of the clip directory to an OpenAI-compatible
speech-to-text endpoint and writes one line per clip into the metadata file,
rendered from a template over {audio_file}, {text} and {speaker_name}.`,
	Args: cobra.NoArgs,
	RunE: runTranscribe,
}

func init() {
	defaults := config.DefaultConfig()

	f := transcribeCmd.Flags()
	f.StringVarP(&transcribeFlags.dir, "dir", "d", defaults.OutputDir,
		"Directory holding the clips")
	f.StringVar(&transcribeFlags.endpoint, "endpoint", defaults.Transcription.Endpoint,
		"Base URL of the transcription API")
	f.StringVar(&transcribeFlags.model, "model", defaults.Transcription.Model,
		"Transcription model")
	f.StringVar(&transcribeFlags.speaker, "speaker", defaults.Metadata.SpeakerName,
		"Speaker name written into every record")
	f.StringVar(&transcribeFlags.header, "header", defaults.Metadata.HeaderRow,
		"Header line of the metadata file (empty = none)")
	f.StringVar(&transcribeFlags.template, "template", defaults.Metadata.Template,
		"Record template; use {{ and }} for literal braces")
	f.StringVar(&transcribeFlags.file, "metadata-file", defaults.Metadata.Filename,
		"Name of the metadata file inside the clip directory")
	f.IntVarP(&transcribeFlags.workers, "workers", "w", 0,
		"Concurrent transcription requests (0 = number of CPUs)")
}

func applyTranscribeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("dir") {
		cfg.OutputDir = transcribeFlags.dir
	}
	if f.Changed("endpoint") {
		cfg.Transcription.Endpoint = transcribeFlags.endpoint
	}
	if f.Changed("model") {
		cfg.Transcription.Model = transcribeFlags.model
	}
	if f.Changed("speaker") {
		cfg.Metadata.SpeakerName = transcribeFlags.speaker
	}
	if f.Changed("header") {
		cfg.Metadata.HeaderRow = transcribeFlags.header
	}
	if f.Changed("template") {
		cfg.Metadata.Template = transcribeFlags.template
	}
	if f.Changed("metadata-file") {
		cfg.Metadata.Filename = transcribeFlags.file
	}
	if f.Changed("workers") {
		cfg.Workers = transcribeFlags.workers
	}
}

func runTranscribe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd, applyTranscribeFlags)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	tmpl, err := metadata.ParseTemplate(cfg.Metadata.Template)
	if err != nil {
		return fmt.Errorf("invalid metadata template: %w", err)
	}

	clips, err := listClips(cfg.OutputDir)
	if err != nil {
		return err
	}
	if len(clips) == 0 {
		fmt.Fprintf(out, "⚠️  No clips found in %s\n", cfg.OutputDir)
		return nil
	}

	fmt.Fprintf(out, "Transcribing %d clip(s) with %s (%s)...\n",
		len(clips), cfg.Transcription.Endpoint, cfg.Transcription.Model)

	backend := transcribe.NewOpenAI(cfg.Transcription.APIKey, cfg.Transcription.Model,
		transcribe.WithBaseURL(cfg.Transcription.Endpoint))

	results, err := transcribe.Batch(cmd.Context(), backend, clips, cfg.WorkerCount(), logger)
	if err != nil {
		return fmt.Errorf("transcription interrupted: %w", err)
	}

	records := make([]metadata.Record, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		abs, err := filepath.Abs(r.Path)
		if err != nil {
			return fmt.Errorf("resolve clip path %s: %w", r.Path, err)
		}
		records = append(records, metadata.Record{
			AudioFile:   abs,
			Text:        r.Text,
			SpeakerName: cfg.Metadata.SpeakerName,
		})
	}

	path := filepath.Join(cfg.OutputDir, cfg.Metadata.Filename)
	if err := metadata.WriteFile(path, cfg.Metadata.HeaderRow, tmpl, records); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n✅ Wrote %d record(s) to %s\n", len(records), path)
	if failed > 0 {
		fmt.Fprintf(out, "%d clip(s) could not be transcribed\n", failed)
	}
	return nil
}

// listClips returns the .wav files of dir in lexical order.
func listClips(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read clip directory %s: %w", dir, err)
	}

	var clips []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			continue
		}
		clips = append(clips, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(clips)
	return clips, nil
}
