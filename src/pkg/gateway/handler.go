package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/q-controller/catcaption/src/pkg/history"
	"github.com/q-controller/catcaption/src/pkg/input"
	"github.com/q-controller/catcaption/src/pkg/pipeline"
)

// Runner is the part of the pipeline the gateway depends on.
type Runner interface {
	Run(ctx context.Context, provider input.Provider) (*pipeline.Result, error)
}

type Handler struct {
	runner  Runner
	token   input.Source
	history history.Store
	logger  *slog.Logger
}

type runRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error  string           `json:"error"`
	Kind   string           `json:"kind"`
	State  string           `json:"state,omitempty"`
	Result *pipeline.Result `json:"result,omitempty"`
}

func statusForKind(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindValidation:
		return http.StatusBadRequest
	case pipeline.KindRequest, pipeline.KindFolder, pipeline.KindMissingUploadLink:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		h.logger.Warn("Failed to encode JSON response", "error", err)
	}
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "failed to parse body: " + err.Error(),
			Kind:  pipeline.KindValidation.String(),
		})
		return
	}

	result, runErr := h.runner.Run(r.Context(), input.Sources{
		Text:  input.Static(req.Text),
		Token: h.token,
	})

	if runErr != nil {
		resp := errorResponse{
			Error:  runErr.Error(),
			Kind:   pipeline.KindOf(runErr).String(),
			Result: result,
		}
		var pipeErr *pipeline.Error
		if errors.As(runErr, &pipeErr) {
			resp.State = pipeErr.State.String()
		}
		h.writeJSON(w, statusForKind(pipeline.KindOf(runErr)), resp)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runs := []*history.Entry{}
	if h.history != nil {
		entries, err := h.history.List()
		if err != nil {
			http.Error(w, "Failed to list runs: "+err.Error(), http.StatusInternalServerError)
			return
		}
		runs = entries
	}
	h.writeJSON(w, http.StatusOK, map[string][]*history.Entry{"runs": runs})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID, ok := pathParams["runId"]
	if !ok || runID == "" {
		http.Error(w, "Missing runId parameter", http.StatusBadRequest)
		return
	}
	if h.history == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	entry, err := h.history.Get(runID)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get run: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

// CreateHandler wires runs and history lookups. store may be nil when
// history is disabled.
func CreateHandler(runner Runner, token input.Source, store history.Store, logger *slog.Logger) (*Handler, error) {
	if runner == nil {
		return nil, errors.New("runner must be provided")
	}
	if token == nil {
		return nil, errors.New("token source must be provided")
	}
	return &Handler{
		runner:  runner,
		token:   token,
		history: store,
		logger:  logger.With("component", "gateway"),
	}, nil
}
