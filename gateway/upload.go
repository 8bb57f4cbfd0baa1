package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Uploader sends document and selfie images to the media host and returns their public URL.
type Uploader struct {
	endpoint   string
	preset     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewUploader returns an uploader posting to endpoint with an unsigned upload preset.
func NewUploader(endpoint, preset string, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		endpoint:   endpoint,
		preset:     preset,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts the file as multipart form data and returns its secure_url.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if u.preset != "" {
		if err := mw.WriteField("upload_preset", u.preset); err != nil {
			return "", fmt.Errorf("failed to create upload form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to create upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("upload of %s failed with status %d", filename, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || out.SecureURL == "" {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("upload of %s failed: %s", filename, msg)
	}

	u.logger.Info("Uploaded media", zap.String("file", filename), zap.String("url", out.SecureURL))
	return out.SecureURL, nil
}
