package utils

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Unmarshal decodes the YAML document at path into value. Fields absent from
// the document keep whatever value already holds, so callers can pre-fill
// defaults.
func Unmarshal[T any](value *T, path string) (retErr error) {
	file, openFileErr := os.Open(path)
	if openFileErr != nil {
		return openFileErr
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			retErr = JoinErr(retErr, closeErr)
		}
	}()

	fileContents, readFileErr := io.ReadAll(file)
	if readFileErr != nil {
		return readFileErr
	}

	return yaml.Unmarshal(fileContents, value)
}

// JoinErr folds a secondary error (close, cleanup) into the primary one.
func JoinErr(primary, secondary error) error {
	if primary == nil {
		return secondary
	}
	if secondary == nil {
		return primary
	}
	return errors.Join(primary, secondary)
}
