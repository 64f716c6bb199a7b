package utils

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// RequestError reports a failed HTTP exchange: either a transport failure
// (Err set) or a response with an unexpected status (StatusCode set).
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: unexpected status code: %d %s", e.Method, e.URL, e.StatusCode, e.Status)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// Do sends req and wraps transport failures into a RequestError.
func Do(client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: req.URL.Redacted(), Err: err}
	}
	return resp, nil
}

// ExpectSuccess returns a RequestError unless resp carries a 2xx status.
func ExpectSuccess(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return StatusError(resp)
}

func StatusError(resp *http.Response) error {
	return &RequestError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL.Redacted(),
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
	}
}

// CloseBody drains and closes a response body, folding a close failure into
// retErr.
func CloseBody(resp *http.Response, retErr *error) {
	_, _ = io.Copy(io.Discard, resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil {
		*retErr = JoinErr(*retErr, closeErr)
	}
}
