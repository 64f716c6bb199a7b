package history

import (
	"errors"

	"github.com/q-controller/catcaption/src/pkg/metadata"
)

var ErrNotFound = errors.New("run not found")

// Store keeps the metadata of completed runs.
type Store interface {
	Put(entry *Entry) error
	Get(runID string) (*Entry, error)
	Remove(runID string) error
	List() ([]*Entry, error)
	Close() error
}

type Entry struct {
	RunID        string           `json:"run_id"`
	MetadataFile string           `json:"metadata_file"`
	Record       *metadata.Record `json:"record"`
}
