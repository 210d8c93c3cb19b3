package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for unsupported output formats.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects how entries are rendered.
type Format string

const (
	FormatProperties Format = "properties"
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
)

// Formats lists the supported formats.
func Formats() []string {
	return []string{string(FormatProperties), string(FormatJSON), string(FormatYAML)}
}

// ParseFormat converts a case-insensitive format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatProperties:
		return FormatProperties, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Write renders entries in the given format. Keys are written in lexical order.
func Write(w io.Writer, entries map[string]string, format Format) error {
	switch format {
	case FormatProperties:
		return writeProperties(w, entries)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

func writeProperties(w io.Writer, entries map[string]string) error {
	props := properties.NewProperties()
	props.DisableExpansion = true
	for key, value := range entries {
		if _, _, err := props.Set(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	props.Sort()

	if _, err := props.Write(w, properties.UTF8); err != nil {
		return fmt.Errorf("write properties: %w", err)
	}
	return nil
}
