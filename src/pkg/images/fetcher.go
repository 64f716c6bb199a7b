package images

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/q-controller/catcaption/src/pkg/utils"
	"golang.org/x/sync/singleflight"
)

const saysPath = "/cat/says/"

// Fetcher downloads captioned pictures from a cataas-compatible service.
type Fetcher struct {
	baseURL string
	client  *http.Client
	group   singleflight.Group
	logger  *slog.Logger
}

func NewFetcher(baseURL string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("component", "fetcher"),
	}
}

// URL returns the endpoint that renders text onto a picture.
func (f *Fetcher) URL(text string) string {
	return utils.JoinURL(f.baseURL, saysPath+url.PathEscape(text))
}

// Fetch downloads the picture for text. Concurrent calls for the same text
// share one request. A caller that gives up stops waiting, but the shared
// request keeps going for the others until the fetcher timeout.
func (f *Fetcher) Fetch(ctx context.Context, text string) ([]byte, error) {
	target := f.URL(text)
	ch := f.group.DoChan(target, func() (interface{}, error) {
		return f.download(context.WithoutCancel(ctx), target)
	})

	select {
	case <-ctx.Done():
		return nil, &utils.RequestError{Method: http.MethodGet, URL: target, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			f.logger.Debug("Shared image download", "url", target)
		}
		return res.Val.([]byte), nil
	}
}

func (f *Fetcher) download(ctx context.Context, target string) (content []byte, retErr error) {
	f.logger.Info("Starting image download", "url", target)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("failed to build request: %w", reqErr)
	}

	resp, err := utils.Do(f.client, req)
	if err != nil {
		return nil, err
	}
	defer utils.CloseBody(resp, &retErr)

	if statusErr := utils.ExpectSuccess(resp); statusErr != nil {
		return nil, statusErr
	}

	size, err := strconv.Atoi(resp.Header.Get("Content-Length"))
	if err != nil {
		size = -1 // Unknown size
	}

	var buf bytes.Buffer
	progress := &progressWriter{total: size, logger: f.logger}
	if _, copyErr := io.Copy(io.MultiWriter(&buf, progress), resp.Body); copyErr != nil {
		return nil, &utils.RequestError{Method: req.Method, URL: req.URL.Redacted(), Err: copyErr}
	}

	f.logger.Info("Image downloaded successfully", "bytes", buf.Len())
	return buf.Bytes(), nil
}

type progressWriter struct {
	total   int
	written int
	logger  *slog.Logger
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.written += n
	if pw.total > 0 {
		pw.logger.Debug("Download progress", "progress", fmt.Sprintf("%.2f%%", float64(pw.written)/float64(pw.total)*100))
	} else {
		pw.logger.Debug("Download progress", "bytes", pw.written)
	}
	return n, nil
}
