package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const remotePrefix = "disk:/"

var ErrOutsideDir = errors.New("metadata file is outside the metadata directory")

// Record describes one uploaded picture. Field order is the key order of the
// JSON document.
type Record struct {
	Filename   string    `json:"filename"`
	Text       string    `json:"text"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadDate time.Time `json:"upload_date"`
	RemotePath string    `json:"remote_path"`
}

func NewRecord(text string, size int64, remotePath string, now time.Time) *Record {
	return &Record{
		Filename:   text + ".jpg",
		Text:       text,
		SizeBytes:  size,
		UploadDate: now,
		RemotePath: remotePrefix + remotePath,
	}
}

// Recorder writes records as {Dir}/{Prefix}{text}{Suffix}.
type Recorder struct {
	Dir    string
	Prefix string
	Suffix string
	// Now defaults to time.Now.
	Now func() time.Time
}

func (r *Recorder) Filename(text string) string {
	return filepath.Join(r.Dir, r.Prefix+text+r.Suffix)
}

func (r *Recorder) contains(filename string) bool {
	rel, err := filepath.Rel(filepath.Clean(r.Dir), filename)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Write builds the record for an upload and stores it, replacing any earlier
// record for the same text.
func (r *Recorder) Write(text string, size int64, remotePath string) (string, *Record, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	record := NewRecord(text, size, remotePath, now())

	data, err := Marshal(record)
	if err != nil {
		return "", nil, err
	}

	filename := r.Filename(text)
	if !r.contains(filename) {
		return "", nil, &os.PathError{Op: "write", Path: filename, Err: ErrOutsideDir}
	}
	if writeErr := os.WriteFile(filename, data, 0644); writeErr != nil {
		return "", nil, fmt.Errorf("failed to write metadata: %w", writeErr)
	}
	return filename, record, nil
}

// Marshal renders a record as indented UTF-8 JSON, leaving non-ASCII and
// HTML characters unescaped.
func Marshal(record *Record) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return buf.Bytes(), nil
}

func Read(filename string) (*Record, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &record, nil
}
