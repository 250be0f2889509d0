package store

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/amirbrooks/todotxt/internal/todotxt"
)

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	timeNow     = func() time.Time { return time.Now().UTC() }
)

const (
	DefaultIDPrefix = "ent_"
	maxLineBytes    = 1 << 20
)

// Record is one parsed, non-blank line of a todo.txt source.
type Record struct {
	ID     string        `json:"id" yaml:"id"`
	Source string        `json:"source" yaml:"source"`
	Line   int           `json:"line" yaml:"line"`
	Raw    string        `json:"raw" yaml:"raw"`
	Entry  todotxt.Entry `json:"entry" yaml:"entry"`
	Tags   []todotxt.Tag `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Canonical reports whether formatting the parsed entry reproduces the raw line.
func (r Record) Canonical() bool {
	return todotxt.Format(r.Entry) == r.Raw
}

// Reader turns todo.txt sources into records. IDs are monotonic ULIDs, so
// records from one Reader sort in read order. A Reader is not safe for
// concurrent use.
type Reader struct {
	IDPrefix string
	entropy  *ulid.MonotonicEntropy
}

func NewReader(idPrefix string) *Reader {
	if strings.TrimSpace(idPrefix) == "" {
		idPrefix = DefaultIDPrefix
	}
	return &Reader{IDPrefix: idPrefix, entropy: ulid.Monotonic(randReader{}, 0)}
}

// Read parses every non-blank line of src with a fresh Reader.
func Read(src io.Reader, source string) ([]Record, error) {
	return NewReader("").Read(src, source)
}

// ReadFile parses the file at path with a fresh Reader.
func ReadFile(path string) ([]Record, error) {
	return NewReader("").ReadFile(path)
}

func (rd *Reader) Read(src io.Reader, source string) ([]Record, error) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var records []Record
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := todotxt.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, n, err)
		}
		records = append(records, Record{
			ID:     rd.IDPrefix + rd.newULID(),
			Source: source,
			Line:   n,
			Raw:    line,
			Entry:  entry,
			Tags:   entry.Tags(),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return records, nil
}

func (rd *Reader) ReadFile(path string) ([]Record, error) {
	f, err := os.Open(expandHome(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	defer f.Close()
	return rd.Read(f, path)
}

// ReadFiles reads each path in order and concatenates the records.
func (rd *Reader) ReadFiles(paths []string) ([]Record, error) {
	var all []Record
	for _, path := range paths {
		records, err := rd.ReadFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

func (rd *Reader) newULID() string {
	if rd.entropy == nil {
		rd.entropy = ulid.Monotonic(randReader{}, 0)
	}
	id, err := ulid.New(ulid.Timestamp(timeNow()), rd.entropy)
	if err != nil {
		// fallback
		return fmt.Sprintf("%d", timeNow().UnixNano())
	}
	return strings.ToUpper(id.String())
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || path == "~" {
		home, _ := os.UserHomeDir()
		if home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%d", timeNow().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename is atomic on same filesystem.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
