// Package pipeline drives a single captioning run: collect input, fetch the
// picture, stage it, make sure the remote folder exists, upload, record
// metadata, and always remove the staged file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/q-controller/catcaption/src/pkg/config"
	"github.com/q-controller/catcaption/src/pkg/disk"
	"github.com/q-controller/catcaption/src/pkg/history"
	"github.com/q-controller/catcaption/src/pkg/images"
	"github.com/q-controller/catcaption/src/pkg/input"
	"github.com/q-controller/catcaption/src/pkg/metadata"
)

// Result describes how far a run got. Fields are filled as the run
// progresses, so a failed run still reports what it achieved.
type Result struct {
	RunID        string           `json:"run_id"`
	Text         string           `json:"text,omitempty"`
	Size         int64            `json:"size_bytes,omitempty"`
	RemotePath   string           `json:"remote_path,omitempty"`
	MetadataFile string           `json:"metadata_file,omitempty"`
	Record       *metadata.Record `json:"record,omitempty"`
}

// Observer is told about every state the run enters.
type Observer func(state State, result *Result)

type Option func(*Pipeline)

func WithHistory(store history.Store) Option {
	return func(p *Pipeline) {
		p.history = store
	}
}

func WithObserver(observer Observer) Option {
	return func(p *Pipeline) {
		p.observer = observer
	}
}

type Pipeline struct {
	config   *config.Config
	fetcher  *images.Fetcher
	recorder *metadata.Recorder
	history  history.Store
	observer Observer
	logger   *slog.Logger

	// staging guards the staged image. Runs fetch concurrently and take it
	// from staging until cleanup.
	staging sync.Mutex
}

func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		config:  cfg,
		fetcher: images.NewFetcher(cfg.ImageService.BaseURL, cfg.ImageService.Timeout, logger),
		recorder: &metadata.Recorder{
			Dir:    cfg.Files.MetadataDir,
			Prefix: cfg.Files.MetadataPrefix,
			Suffix: cfg.Files.MetadataSuffix,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type run struct {
	*Pipeline
	state  State
	result *Result
	locked bool
	// base carries the run ID for the components a run creates.
	base   *slog.Logger
	logger *slog.Logger
}

func (r *run) enter(next State) {
	r.logger.Debug("State transition", "from", r.state, "to", next)
	r.state = next
	if r.observer != nil {
		r.observer(next, r.result)
	}
}

func (r *run) fail(err error) error {
	failed := r.state
	r.enter(StateFailed)
	runErr := &Error{Kind: classify(err), State: failed, Err: err}
	r.logger.Error("Run failed", "state", failed, "kind", runErr.Kind, "error", err)
	return runErr
}

// Run performs one run with input from provider. The returned Result is
// never nil. Any error is a *Error.
func (p *Pipeline) Run(ctx context.Context, provider input.Provider) (*Result, error) {
	r := &run{
		Pipeline: p,
		state:    StateStart,
		result:   &Result{RunID: uuid.NewString()},
	}
	r.base = p.logger.With("run_id", r.result.RunID)
	r.logger = r.base.With("component", "pipeline")
	defer r.unlockStaging()

	err := r.execute(ctx, provider)
	if err != nil {
		err = r.fail(err)
	}

	r.lockStaging()
	r.enter(StateCleaningUp)
	if cleanupErr := images.Cleanup(p.config.Files.Image); cleanupErr != nil {
		r.logger.Error("Failed to remove staged image", "path", p.config.Files.Image, "error", cleanupErr)
		var runErr *Error
		if errors.As(err, &runErr) {
			runErr.Err = errors.Join(runErr.Err, cleanupErr)
		} else {
			err = &Error{Kind: KindIO, State: StateCleaningUp, Err: cleanupErr}
		}
	}
	return r.result, err
}

func (r *run) lockStaging() {
	if !r.locked {
		r.staging.Lock()
		r.locked = true
	}
}

func (r *run) unlockStaging() {
	if r.locked {
		r.locked = false
		r.staging.Unlock()
	}
}

func (r *run) execute(ctx context.Context, provider input.Provider) error {
	cfg := r.config

	r.enter(StateValidating)
	in, inputErr := input.Collect(ctx, provider)
	if inputErr != nil {
		return inputErr
	}
	r.result.Text = in.Text

	r.enter(StateFetching)
	content, fetchErr := r.fetcher.Fetch(ctx, in.Text)
	if fetchErr != nil {
		return fetchErr
	}

	r.lockStaging()
	r.enter(StateStaging)
	size, stageErr := images.Stage(content, cfg.Files.Image)
	if stageErr != nil {
		return stageErr
	}
	r.result.Size = size

	client := disk.NewClient(cfg.Storage.BaseURL, cfg.Storage.Folder, in.Token, cfg.Storage.Timeout, r.base)

	r.enter(StateFolderCheck)
	if folderErr := client.EnsureFolder(ctx); folderErr != nil {
		return folderErr
	}

	r.enter(StateUploading)
	remotePath, uploadErr := client.Upload(ctx, cfg.Files.Image, in.Text)
	if uploadErr != nil {
		return uploadErr
	}
	r.result.RemotePath = remotePath

	r.enter(StateRecordingMetadata)
	filename, record, recordErr := r.recorder.Write(in.Text, size, remotePath)
	if recordErr != nil {
		return recordErr
	}
	r.result.MetadataFile = filename
	r.result.Record = record

	if r.history != nil {
		if putErr := r.history.Put(&history.Entry{
			RunID:        r.result.RunID,
			MetadataFile: filename,
			Record:       record,
		}); putErr != nil {
			return fmt.Errorf("failed to record history: %w: %w", errHistory, putErr)
		}
	}

	r.enter(StateDone)
	return nil
}
