// Package imgbb implements avatar hosting on the imgbb image host.
package imgbb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultUploadURL = "https://api.imgbb.com/1/upload"
	requestTimeout   = 15 * time.Second
)

// Client implements ports.AvatarUploader.
type Client struct {
	apiKey string
	log    *zap.Logger

	uploadURL string
	client    *http.Client
}

// NewClient creates a new image host client.
func NewClient(apiKey string, log *zap.Logger) *Client {
	return &Client{
		apiKey:    apiKey,
		log:       log,
		uploadURL: defaultUploadURL,
		client:    &http.Client{Timeout: requestTimeout},
	}
}

// -- API response types (internal) ------------------------------------------

type uploadResponse struct {
	Success bool       `json:"success"`
	Data    uploadData `json:"data"`
}

type uploadData struct {
	DisplayURL string `json:"display_url"`
	DeleteURL  string `json:"delete_url"`
}

// Upload sends an image to the host and returns its public display URL along
// with the deletion URL for later cleanup.
func (c *Client) Upload(ctx context.Context, image []byte) (displayURL, deleteURL string, err error) {
	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("image", base64.StdEncoding.EncodeToString(image))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("imgbb: upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("imgbb: upload returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("imgbb: failed to parse upload response: %w", err)
	}
	if !parsed.Success || parsed.Data.DisplayURL == "" {
		return "", "", fmt.Errorf("imgbb: upload rejected: %s", string(body))
	}

	return parsed.Data.DisplayURL, parsed.Data.DeleteURL, nil
}

// Delete removes a previously uploaded image via its deletion URL. A failure
// only leaves an orphaned image behind; callers treat it as best effort.
func (c *Client) Delete(ctx context.Context, deleteURL string) error {
	if deleteURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, deleteURL, nil)
	if err != nil {
		return fmt.Errorf("imgbb: invalid delete url: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("imgbb: delete failed", zap.Error(err))
		return fmt.Errorf("imgbb: delete failed: %w", err)
	}
	resp.Body.Close()
	return nil
}
