package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// RemoteFileHandle identifies an uploaded file on the provider side for
// the duration of one video's classification. It must be released with
// Delete whether classification succeeds or fails; remote files also
// expire on their own after the provider's retention window.
type RemoteFileHandle struct {
	FileURI  string
	FileName string
	MIMEType string
}

type remoteFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	State    string `json:"state"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload pushes a local video to the provider's file store and waits for
// it to become ACTIVE. The full three-step sequence (start session, push
// bytes, poll status) is retried as a unit.
func (c *Client) Upload(ctx context.Context, path string) (*RemoteFileHandle, error) {
	var handle *RemoteFileHandle
	err := c.retryPolicy().Do(ctx, "upload of "+filepath.Base(path), func() error {
		h, err := c.uploadOnce(ctx, path)
		if err != nil {
			c.logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("upload attempt failed")
			return err
		}
		handle = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return handle, nil
}

func (c *Client) uploadOnce(ctx context.Context, path string) (*RemoteFileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("video file not accessible: %w", err)
	}
	mimeType := videoMIMEType(path)

	sessionURL, err := c.startUploadSession(ctx, filepath.Base(path), info.Size(), mimeType)
	if err != nil {
		return nil, err
	}

	file, err := c.pushBytes(ctx, sessionURL, path, info.Size())
	if err != nil {
		return nil, err
	}

	active, err := c.waitActive(ctx, file.Name)
	if err != nil {
		return nil, err
	}

	return &RemoteFileHandle{
		FileURI:  active.URI,
		FileName: active.Name,
		MIMEType: mimeType,
	}, nil
}

// startUploadSession initiates a resumable upload and returns the session
// URL the bytes are pushed to.
func (c *Client) startUploadSession(ctx context.Context, displayName string, size int64, mimeType string) (string, error) {
	meta, err := json.Marshal(map[string]any{
		"file": map[string]string{"display_name": displayName},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal upload metadata: %w", err)
	}

	url := fmt.Sprintf("%s/upload/v1beta/files?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(meta))
	if err != nil {
		return "", fmt.Errorf("failed to create session request: %w", err)
	}
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", fmt.Sprintf("%d", size))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to start upload session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload session returned status %d: %s", resp.StatusCode, snippet(body))
	}

	sessionURL := resp.Header.Get("X-Goog-Upload-URL")
	if sessionURL == "" {
		return "", fmt.Errorf("no upload session URL in response")
	}
	return sessionURL, nil
}

// pushBytes streams the whole file to the session URL and finalizes the
// upload.
func (c *Client) pushBytes(ctx context.Context, sessionURL, path string, size int64) (*remoteFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sessionURL, f)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to push file bytes: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("upload returned status %d: %s", resp.StatusCode, snippet(body))
	}

	var wrapper struct {
		File  *remoteFile `json:"file"`
		Error *apiError   `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("malformed upload response: %w", err)
	}
	if wrapper.Error != nil {
		return nil, fmt.Errorf("provider rejected upload: %s", wrapper.Error.Message)
	}
	if wrapper.File == nil || wrapper.File.Name == "" {
		return nil, fmt.Errorf("upload response missing file name")
	}
	return wrapper.File, nil
}

// waitActive polls the file status endpoint until the file is ACTIVE.
// FAILED is terminal; the poll ceiling produces a timeout error.
func (c *Client) waitActive(ctx context.Context, name string) (*remoteFile, error) {
	deadline := time.Now().Add(c.pollTimeout)
	for {
		file, err := c.getFile(ctx, name)
		if err != nil {
			return nil, err
		}

		switch file.State {
		case "ACTIVE":
			return file, nil
		case "FAILED":
			if file.Error != nil && file.Error.Message != "" {
				return nil, fmt.Errorf("remote file processing failed: %s", file.Error.Message)
			}
			return nil, fmt.Errorf("remote file processing failed")
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for file %s to become active", name)
		}

		c.logger.Debug().Str("file", name).Str("state", file.State).Msg("waiting for remote file")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) getFile(ctx context.Context, name string) (*remoteFile, error) {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get file status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status check returned %d: %s", resp.StatusCode, snippet(body))
	}

	var file remoteFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("malformed status response: %w", err)
	}
	return &file, nil
}

// Delete releases a remote file. Best-effort: failures are logged and
// swallowed, since remote files expire on their own.
func (c *Client) Delete(ctx context.Context, handle *RemoteFileHandle) {
	if handle == nil || handle.FileName == "" {
		return
	}

	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, handle.FileName, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		c.logger.Warn().Err(err).Str("file", handle.FileName).Msg("failed to build delete request")
		return
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("file", handle.FileName).Msg("failed to delete remote file")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("file", handle.FileName).Msg("remote file delete rejected")
		return
	}
	c.logger.Debug().Str("file", handle.FileName).Msg("remote file deleted")
}

func videoMIMEType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	switch filepath.Ext(path) {
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	default:
		return "video/mp4"
	}
}
