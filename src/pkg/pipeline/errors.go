package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"

	"github.com/q-controller/catcaption/src/pkg/disk"
	"github.com/q-controller/catcaption/src/pkg/input"
	"github.com/q-controller/catcaption/src/pkg/utils"
)

var errHistory = errors.New("history store error")

type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindRequest
	KindFolder
	KindMissingUploadLink
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRequest:
		return "request"
	case KindFolder:
		return "folder"
	case KindMissingUploadLink:
		return "missing_upload_link"
	case KindIO:
		return "io"
	default:
		return "unexpected"
	}
}

// Error is returned by Run for every failed run.
type Error struct {
	Kind  Kind
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed (%s error): %v", e.State, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of a Run error, KindUnexpected for anything else.
func KindOf(err error) Kind {
	var runErr *Error
	if errors.As(err, &runErr) {
		return runErr.Kind
	}
	return KindUnexpected
}

// classify maps component errors onto the run error taxonomy. Transport
// failures win over the folder sentinels they may be wrapped in.
func classify(err error) Kind {
	var urlErr *url.Error
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, input.ErrValidation):
		return KindValidation
	case utils.IsRequestError(err), errors.As(err, &urlErr):
		return KindRequest
	case errors.Is(err, disk.ErrFolderCheck), errors.Is(err, disk.ErrFolderCreate):
		return KindFolder
	case errors.Is(err, disk.ErrMissingUploadLink):
		return KindMissingUploadLink
	case errors.Is(err, errHistory), errors.As(err, &pathErr), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return KindIO
	default:
		return KindUnexpected
	}
}
