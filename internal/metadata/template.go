// Package metadata renders per-clip records into a flat, line-per-record
// table used by TTS dataset tooling.
package metadata

import (
	"errors"
	"fmt"
	"strings"
)

// Recognized template fields.
const (
	FieldAudioFile   = "audio_file"
	FieldText        = "text"
	FieldSpeakerName = "speaker_name"
)

// Defaults matching the common LJSpeech-style layout.
const (
	DefaultTemplate    = "{audio_file}|{text}|{speaker_name}"
	DefaultHeader      = "audio_file|text|speaker_name"
	DefaultSpeakerName = "coqui"
	DefaultFilename    = "transcriptions.csv"
)

var (
	// ErrUnknownField is returned when a template references a field other
	// than audio_file, text or speaker_name.
	ErrUnknownField = errors.New("unknown template field")
	// ErrUnbalancedBrace is returned for a lone "{" or "}". Literal braces
	// are written as "{{" and "}}".
	ErrUnbalancedBrace = errors.New("unbalanced brace in template")
	// ErrEmptyTemplate is returned for a template without any content.
	ErrEmptyTemplate = errors.New("empty template")
)

// Record holds the values of one output line.
type Record struct {
	AudioFile   string
	Text        string
	SpeakerName string
}

func (r Record) field(name string) string {
	switch name {
	case FieldAudioFile:
		return r.AudioFile
	case FieldText:
		return r.Text
	case FieldSpeakerName:
		return r.SpeakerName
	default:
		return ""
	}
}

// Template is a parsed record format such as "{audio_file}|{text}".
type Template struct {
	raw   string
	parts []part
}

// part is either literal text or a field reference
type part struct {
	literal string
	field   string
}

// ParseTemplate parses and validates a record template. Unknown fields are
// rejected here so a bad template fails before any work is done.
func ParseTemplate(s string) (*Template, error) {
	if s == "" {
		return nil, ErrEmptyTemplate
	}

	t := &Template{raw: s}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w at offset %d", ErrUnbalancedBrace, i)
			}
			name := s[i+1 : i+1+end]
			if !knownField(name) {
				return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
			}
			flush()
			t.parts = append(t.parts, part{field: name})
			i += end + 2
		case c == '}':
			return nil, fmt.Errorf("%w at offset %d", ErrUnbalancedBrace, i)
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()

	return t, nil
}

func knownField(name string) bool {
	switch name {
	case FieldAudioFile, FieldText, FieldSpeakerName:
		return true
	default:
		return false
	}
}

// Render substitutes the record's values. No quoting or escaping is done.
func (t *Template) Render(r Record) string {
	var b strings.Builder
	for _, p := range t.parts {
		if p.field != "" {
			b.WriteString(r.field(p.field))
			continue
		}
		b.WriteString(p.literal)
	}
	return b.String()
}

// String returns the template source
func (t *Template) String() string {
	return t.raw
}
