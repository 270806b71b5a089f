package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"forex-trading-agent/internal/api"
	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/store"
	"forex-trading-agent/internal/types"
)

// HTTPCapturer fetches a screenshot of the chart region from an external
// capture service.
type HTTPCapturer struct {
	client *api.Client
}

func NewHTTPCapturer(cfg *store.Config) *HTTPCapturer {
	return &HTTPCapturer{
		client: api.NewClient(
			api.WithBaseURL(cfg.Capture.URL),
			api.WithTimeout(time.Duration(cfg.CallTimeoutSeconds)*time.Second),
			api.WithLogging(true),
		),
	}
}

func (c *HTTPCapturer) Capture(ctx context.Context) (types.Image, error) {
	var resp struct {
		Image  string `json:"image"`
		Format string `json:"format"`
	}
	if err := c.client.GetJSON(ctx, "/screenshot", &resp); err != nil {
		return types.Image{}, fmt.Errorf("capture snapshot: %w", err)
	}
	if resp.Image == "" {
		return types.Image{}, fmt.Errorf("capture service returned empty image")
	}
	if resp.Format == "" {
		resp.Format = "png"
	}
	return types.Image{Base64: resp.Image, Format: resp.Format}, nil
}

// StaticCapturer reads a screenshot from disk. Used in DRY_RUN setups and
// tests where no capture service is available.
type StaticCapturer struct {
	path string
}

func NewStaticCapturer(path string) *StaticCapturer {
	return &StaticCapturer{path: path}
}

func (c *StaticCapturer) Capture(ctx context.Context) (types.Image, error) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return types.Image{}, fmt.Errorf("read static screenshot: %w", err)
	}
	format := strings.TrimPrefix(filepath.Ext(c.path), ".")
	if format == "" {
		format = "png"
	}
	logger.Debug(ctx, "Loaded static screenshot", "path", c.path, "bytes", len(b))
	return types.Image{Base64: base64.StdEncoding.EncodeToString(b), Format: format}, nil
}
