package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
	FormatYAML   = "yaml"
)

type recordsDoc struct {
	Records []Record `json:"records" yaml:"records"`
}

func NormalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case FormatJSON, FormatNDJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "jsonl":
		return FormatNDJSON, nil
	default:
		return "", fmt.Errorf("%w: format %q (want json|ndjson|yaml)", ErrInvalid, format)
	}
}

// Encode writes records to w in the given format.
func Encode(w io.Writer, format string, records []Record) error {
	f, err := NormalizeFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatNDJSON:
		return WriteNDJSON(w, records)
	case FormatYAML:
		return WriteYAML(w, records)
	default:
		return WriteJSON(w, records)
	}
}

func WriteJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recordsDoc{Records: records})
}

func WriteNDJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func WriteYAML(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(recordsDoc{Records: records}); err != nil {
		return err
	}
	return enc.Close()
}

// ExportFile writes records into dir under a timestamped name and returns
// the path written.
func ExportFile(dir, base, format string, records []Record) (string, error) {
	f, err := NormalizeFormat(format)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, f, records); err != nil {
		return "", err
	}
	return writeExportFile(dir, base, f, buf.Bytes())
}

func writeExportFile(dir, base, ext string, data []byte) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("export directory is empty")
	}
	dir = expandHome(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	ts := timeNow().Format("20060102-150405")
	name := fmt.Sprintf("%s-%s.%s", base, ts, ext)
	path := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		name = fmt.Sprintf("%s-%s-%d.%s", base, ts, i, ext)
		path = filepath.Join(dir, name)
	}
	if err := atomicWriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
