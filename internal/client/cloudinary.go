package client

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"marketplace-backend/internal/apperrors"
	"marketplace-backend/internal/config"
)

// ImageStore uploads product images to the media host and fetches their
// metadata back. Calls are best-effort from the caller's point of view.
type ImageStore interface {
	Upload(ctx context.Context, image io.Reader, filename string) (*UploadResult, error)
	Fetch(ctx context.Context, publicID string) (*ImageMetadata, error)
}

type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

type ImageMetadata struct {
	PublicID  string `json:"public_id"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
	SecureURL string `json:"secure_url"`
}

type cloudinaryClientImpl struct {
	httpClient *http.Client
	cloudName  string
	apiKey     string
	apiSecret  string
}

func NewCloudinaryClient(cfg *config.Cloudinary) ImageStore {
	return &cloudinaryClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
	}
}

func (c *cloudinaryClientImpl) Upload(ctx context.Context, image io.Reader, filename string) (*UploadResult, error) {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signature := c.sign("timestamp=" + timestamp)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}
	_ = writer.WriteField("api_key", c.apiKey)
	_ = writer.WriteField("timestamp", timestamp)
	_ = writer.WriteField("signature", signature)
	if err := writer.Close(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("image host unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, apperrors.Upstream("image upload failed",
			fmt.Errorf("status=%d body=%s", resp.StatusCode, string(raw)))
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Upstream("decode upload response", err)
	}
	return &result, nil
}

func (c *cloudinaryClientImpl) Fetch(ctx context.Context, publicID string) (*ImageMetadata, error) {
	url := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/resources/image/upload/%s", c.cloudName, publicID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("image host unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Upstream("image lookup failed",
			fmt.Errorf("status=%d", resp.StatusCode))
	}

	var meta ImageMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, apperrors.Upstream("decode image metadata", err)
	}
	return &meta, nil
}

func (c *cloudinaryClientImpl) sign(params string) string {
	sum := sha1.Sum([]byte(params + c.apiSecret))
	return hex.EncodeToString(sum[:])
}
