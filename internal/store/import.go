package store

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/todotxt/internal/todotxt"
)

//go:embed schema/entry.schema.json
var entrySchemaJSON []byte

const entrySchemaURL = "https://schemas.todotxt.local/entry.schema.json"

var (
	entrySchemaOnce sync.Once
	entrySchema     *jsonschema.Schema
	entrySchemaErr  error
)

// ValidationError locates a rejected entry in an import document.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func compiledEntrySchema() (*jsonschema.Schema, error) {
	entrySchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(entrySchemaURL, bytes.NewReader(entrySchemaJSON)); err != nil {
			entrySchemaErr = fmt.Errorf("add entry schema: %w", err)
			return
		}
		entrySchema, entrySchemaErr = compiler.Compile(entrySchemaURL)
	})
	return entrySchema, entrySchemaErr
}

// DecodeEntries reads entries in json, ndjson or yaml form. A JSON document
// may be an array of entries, {"entries": [...]}, or a records export; NDJSON
// lines may be entries or records. Every entry is checked against the entry
// schema before it is decoded.
func DecodeEntries(r io.Reader, format string) ([]todotxt.Entry, error) {
	f, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	var docs []any
	switch f {
	case FormatNDJSON:
		docs, err = decodeNDJSONDocs(r)
	case FormatYAML:
		docs, err = decodeYAMLDocs(r)
	default:
		docs, err = decodeJSONDocs(r)
	}
	if err != nil {
		return nil, err
	}

	schema, err := compiledEntrySchema()
	if err != nil {
		return nil, err
	}
	entries := make([]todotxt.Entry, 0, len(docs))
	for i, doc := range docs {
		path := fmt.Sprintf("entries[%d]", i)
		doc = unwrapRecord(doc)
		if err := schema.Validate(doc); err != nil {
			return nil, &ValidationError{Path: path, Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, &ValidationError{Path: path, Err: err}
		}
		var e todotxt.Entry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, &ValidationError{Path: path, Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
		}
		if err := e.Validate(); err != nil {
			return nil, &ValidationError{Path: path, Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeJSONDocs(r io.Reader) ([]any, error) {
	var doc any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: decode json: %v", ErrInvalid, err)
	}
	return entryDocs(doc)
}

func decodeNDJSONDocs(r io.Reader) ([]any, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var docs []any
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var doc any
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalid, n, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func decodeYAMLDocs(r io.Reader) ([]any, error) {
	var raw any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalid, err)
	}
	// Re-encode through JSON so the schema sees JSON value types.
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: yaml document: %v", ErrInvalid, err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return entryDocs(doc)
}

func entryDocs(doc any) ([]any, error) {
	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if items, ok := v["entries"].([]any); ok {
			return items, nil
		}
		if items, ok := v["records"].([]any); ok {
			return items, nil
		}
		return []any{v}, nil
	default:
		return nil, fmt.Errorf("%w: expected an entry list, got %T", ErrInvalid, doc)
	}
}

// unwrapRecord returns the entry of an exported record, or doc unchanged.
func unwrapRecord(doc any) any {
	if m, ok := doc.(map[string]any); ok {
		if e, ok := m["entry"].(map[string]any); ok {
			return e
		}
	}
	return doc
}
