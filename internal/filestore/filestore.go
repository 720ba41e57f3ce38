package filestore

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Store uploads receipt files and yields a public URL for the stored object.
type Store interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// Client targets the managed platform's object storage API. Objects land in a
// single public bucket; the public URL follows the bucket convention.
type Client struct {
	baseURL    string
	bucket     string
	serviceKey string
	http       *http.Client
}

func NewClient() *Client {
	viper.SetDefault("storage.bucket", "receipts")
	viper.SetDefault("storage.timeout_seconds", 30)

	return &Client{
		baseURL:    viper.GetString("storage.url"),
		bucket:     viper.GetString("storage.bucket"),
		serviceKey: viper.GetString("storage.service_key"),
		http: &http.Client{
			Timeout: time.Duration(viper.GetInt("storage.timeout_seconds")) * time.Second,
		},
	}
}

// Upload stores the object under a collision-free key and returns its public
// URL. The original filename is kept as a suffix so downloads stay readable.
func (c *Client) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	key := fmt.Sprintf("%s_%s", uuid.NewString(), path.Base(filename))

	endpoint := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, r)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[STORAGE] Upload of %s failed: %v", key, err)
		return "", fmt.Errorf("file store unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("file store rejected upload: status %d", resp.StatusCode)
	}

	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, c.bucket, key), nil
}
