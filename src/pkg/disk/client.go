// Package disk talks to a Yandex.Disk-compatible REST API.
package disk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/q-controller/catcaption/src/pkg/utils"
)

var (
	ErrFolderCheck       = errors.New("failed to check folder")
	ErrFolderCreate      = errors.New("failed to create folder")
	ErrMissingUploadLink = errors.New("upload link is missing")
)

type Client struct {
	baseURL string
	folder  string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

type uploadLink struct {
	Href      string `json:"href"`
	Method    string `json:"method"`
	Templated bool   `json:"templated"`
}

func NewClient(baseURL, folder, token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		folder:  folder,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("component", "disk", "folder", folder),
	}
}

// RemotePath is the logical path of the picture captioned with text.
func (c *Client) RemotePath(text string) string {
	return c.folder + "/" + text + ".jpg"
}

func (c *Client) resourceURL(suffix string, query url.Values) string {
	return utils.JoinURL(c.baseURL, "resources"+suffix) + "?" + query.Encode()
}

func (c *Client) newRequest(ctx context.Context, method, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// send performs an authorized request and returns only the status code.
func (c *Client) send(ctx context.Context, method, target string) (status int, retErr error) {
	req, reqErr := c.newRequest(ctx, method, target)
	if reqErr != nil {
		return 0, reqErr
	}
	resp, err := utils.Do(c.client, req)
	if err != nil {
		return 0, err
	}
	defer utils.CloseBody(resp, &retErr)
	return resp.StatusCode, nil
}

// EnsureFolder creates the configured folder unless it already exists. The
// check and the creation are not atomic.
func (c *Client) EnsureFolder(ctx context.Context) error {
	target := c.resourceURL("", url.Values{"path": {c.folder}})

	status, err := c.send(ctx, http.MethodGet, target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFolderCheck, err)
	}

	switch status {
	case http.StatusOK:
		c.logger.Debug("Folder exists")
		return nil
	case http.StatusNotFound:
		c.logger.Info("Creating folder")
	default:
		return fmt.Errorf("%w: unexpected status code %d", ErrFolderCheck, status)
	}

	status, err = c.send(ctx, http.MethodPut, target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFolderCreate, err)
	}
	if status != http.StatusCreated {
		return fmt.Errorf("%w: unexpected status code %d", ErrFolderCreate, status)
	}
	return nil
}

// Upload stores the file at localPath as {folder}/{text}.jpg, overwriting any
// previous upload, and returns that remote path.
func (c *Client) Upload(ctx context.Context, localPath, text string) (string, error) {
	remotePath := c.RemotePath(text)

	href, linkErr := c.uploadLink(ctx, remotePath)
	if linkErr != nil {
		return "", linkErr
	}
	c.logger.Debug("Received upload link", "path", remotePath)

	if putErr := c.putFile(ctx, href, localPath); putErr != nil {
		return "", putErr
	}

	c.logger.Info("File uploaded", "path", remotePath)
	return remotePath, nil
}

func (c *Client) uploadLink(ctx context.Context, remotePath string) (href string, retErr error) {
	target := c.resourceURL("/upload", url.Values{
		"path":      {remotePath},
		"overwrite": {"true"},
	})
	req, reqErr := c.newRequest(ctx, http.MethodGet, target)
	if reqErr != nil {
		return "", reqErr
	}

	resp, err := utils.Do(c.client, req)
	if err != nil {
		return "", err
	}
	defer utils.CloseBody(resp, &retErr)

	if statusErr := utils.ExpectSuccess(resp); statusErr != nil {
		return "", statusErr
	}

	var link uploadLink
	if decodeErr := json.NewDecoder(resp.Body).Decode(&link); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		return "", fmt.Errorf("%w: failed to decode response: %w", ErrMissingUploadLink, decodeErr)
	}
	if link.Href == "" {
		return "", ErrMissingUploadLink
	}
	return link.Href, nil
}

// putFile sends the file as the "file" field of a multipart form. The
// upload target is pre-signed, so no authorization header is attached.
func (c *Client) putFile(ctx context.Context, href, localPath string) (retErr error) {
	file, openErr := os.Open(filepath.Clean(localPath))
	if openErr != nil {
		return fmt.Errorf("failed to open staged image: %w", openErr)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			retErr = utils.JoinErr(retErr, closeErr)
		}
	}()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, partErr := form.CreateFormFile("file", filepath.Base(localPath))
	if partErr != nil {
		return fmt.Errorf("failed to build form: %w", partErr)
	}
	if _, copyErr := io.Copy(part, file); copyErr != nil {
		return fmt.Errorf("failed to read staged image: %w", copyErr)
	}
	if closeErr := form.Close(); closeErr != nil {
		return fmt.Errorf("failed to build form: %w", closeErr)
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPut, href, &body)
	if reqErr != nil {
		return fmt.Errorf("failed to build request: %w", reqErr)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := utils.Do(c.client, req)
	if err != nil {
		return err
	}
	defer utils.CloseBody(resp, &retErr)

	return utils.ExpectSuccess(resp)
}
