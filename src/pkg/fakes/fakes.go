// Package fakes provides in-process stand-ins for the image service and the
// storage API.
package fakes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

type Request struct {
	Method        string
	Path          string
	EscapedPath   string
	Query         map[string][]string
	Authorization string
	ContentType   string
	Body          []byte
}

type recorder struct {
	mu       sync.Mutex
	requests []Request
}

func (r *recorder) record(req *http.Request) Request {
	body, _ := io.ReadAll(req.Body)
	entry := Request{
		Method:        req.Method,
		Path:          req.URL.Path,
		EscapedPath:   req.URL.EscapedPath(),
		Query:         req.URL.Query(),
		Authorization: req.Header.Get("Authorization"),
		ContentType:   req.Header.Get("Content-Type"),
		Body:          body,
	}
	r.mu.Lock()
	r.requests = append(r.requests, entry)
	r.mu.Unlock()
	return entry
}

func (r *recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.requests...)
}

// ImageService answers /cat/says/{text} with Content and Status.
type ImageService struct {
	recorder
	*httptest.Server

	mu      sync.Mutex
	status  int
	content []byte
	arrived chan struct{}
	gate    chan struct{}
}

func NewImageService(content []byte) *ImageService {
	s := &ImageService{status: http.StatusOK, content: content}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *ImageService) SetStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Hold keeps requests waiting until release is called. arrived receives once
// for every request that reaches the service while held.
func (s *ImageService) Hold() (arrived <-chan struct{}, release func()) {
	ch := make(chan struct{}, 16)
	gate := make(chan struct{})
	s.mu.Lock()
	s.arrived, s.gate = ch, gate
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { close(gate) })
	}
}

func (s *ImageService) handle(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	s.mu.Lock()
	status, content := s.status, s.content
	arrived, gate := s.arrived, s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-gate
	}

	if !strings.HasPrefix(r.URL.Path, "/cat/says/") {
		http.NotFound(w, r)
		return
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(content)
}

// Storage mimics the resources API. Responses are configured through the
// exported fields before the first request.
type Storage struct {
	recorder
	*httptest.Server

	// FolderStatus answers GET /resources. Defaults to 200.
	FolderStatus int
	// CreateStatus answers PUT /resources. Defaults to 201.
	CreateStatus int
	// LinkStatus answers GET /resources/upload. Defaults to 200.
	LinkStatus int
	// LinkBody overrides the upload link JSON. When empty, a link to
	// /upload-target on this server is returned.
	LinkBody string
	// UploadStatus answers PUT /upload-target. Defaults to 201.
	UploadStatus int

	mu       sync.Mutex
	uploaded []byte
}

func NewStorage() *Storage {
	s := &Storage{
		FolderStatus: http.StatusOK,
		CreateStatus: http.StatusCreated,
		LinkStatus:   http.StatusOK,
		UploadStatus: http.StatusCreated,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Uploaded returns the raw multipart body of the last transfer.
func (s *Storage) Uploaded() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploaded
}

// Count returns how many requests matched method and path.
func (s *Storage) Count(method, path string) int {
	n := 0
	for _, req := range s.Requests() {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

func (s *Storage) handle(w http.ResponseWriter, r *http.Request) {
	req := s.record(r)

	switch {
	case r.URL.Path == "/resources" && r.Method == http.MethodGet:
		w.WriteHeader(s.FolderStatus)
	case r.URL.Path == "/resources" && r.Method == http.MethodPut:
		w.WriteHeader(s.CreateStatus)
	case r.URL.Path == "/resources/upload" && r.Method == http.MethodGet:
		if s.LinkStatus != http.StatusOK {
			w.WriteHeader(s.LinkStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if s.LinkBody != "" {
			_, _ = io.WriteString(w, s.LinkBody)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"href":      s.URL + "/upload-target",
			"method":    "PUT",
			"templated": false,
		})
	case r.URL.Path == "/upload-target" && r.Method == http.MethodPut:
		s.mu.Lock()
		s.uploaded = req.Body
		s.mu.Unlock()
		w.WriteHeader(s.UploadStatus)
	default:
		http.NotFound(w, r)
	}
}
