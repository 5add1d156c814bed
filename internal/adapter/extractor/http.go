package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"faceid/internal/domain"
)

const defaultExtractorURL = "http://localhost:8000"

// HTTPExtractor calls an external face detection and embedding service.
//
// The service exposes GET /health, reporting whether its models are loaded,
// and POST /detect, accepting a multipart "file" image and returning every
// face found with its bounding box and descriptor.
type HTTPExtractor struct {
	baseURL   string
	model     string
	dimension int
	maxSide   int
	client    *http.Client
	logger    *slog.Logger
	ready     atomic.Bool
}

type healthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
	Dim    int    `json:"dim"`
}

type detectResponse struct {
	Faces []detectedFace `json:"faces"`
	Error string         `json:"error,omitempty"`
}

type detectedFace struct {
	Box       domain.Box `json:"box"`
	Score     float64    `json:"score"`
	Embedding []float32  `json:"embedding"`
}

func NewHTTPExtractor(baseURL string, dimension int, timeout time.Duration, logger *slog.Logger) *HTTPExtractor {
	if baseURL == "" {
		baseURL = defaultExtractorURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPExtractor{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		dimension: dimension,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// SetMaxImageSide makes Detect downscale frames whose width or height
// exceeds n before upload. Boxes are reported in original frame pixels.
// Zero disables resizing.
func (e *HTTPExtractor) SetMaxImageSide(n int) {
	e.maxSide = n
}

// Warmup checks the service health and marks the extractor ready when the
// models are loaded and the service dimension agrees with the configured one.
func (e *HTTPExtractor) Warmup(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotReady, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned status %d: %s", domain.ErrNotReady, resp.StatusCode, string(body))
	}

	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("failed to parse health response: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("%w: service status %q", domain.ErrNotReady, health.Status)
	}
	if health.Dim != 0 && e.dimension != 0 && health.Dim != e.dimension {
		return fmt.Errorf("%w: service produces %d-dimensional embeddings, configured %d", domain.ErrDimensionMismatch, health.Dim, e.dimension)
	}
	if e.dimension == 0 {
		e.dimension = health.Dim
	}

	e.model = health.Model
	e.ready.Store(true)
	e.logger.Debug("extractor ready", "url", e.baseURL, "model", e.model, "dim", e.dimension)
	return nil
}

func (e *HTTPExtractor) Ready() bool {
	return e.ready.Load()
}

// Detect uploads the frame and returns the detected faces. Faces with a
// descriptor of the wrong length are dropped.
func (e *HTTPExtractor) Detect(ctx context.Context, frame domain.Frame) ([]domain.Detection, error) {
	if !e.Ready() {
		return nil, domain.ErrNotReady
	}

	scale := 1.0
	if e.maxSide > 0 {
		data, factor, err := downscaleFrame(frame.Data, e.maxSide)
		if err != nil {
			e.logger.Debug("uploading frame without resizing", "frame", frame.Source, "error", err)
		} else if factor != 1 {
			frame.Data, scale = data, factor
			frame.Source = strings.TrimSuffix(frame.Source, filepath.Ext(frame.Source)) + ".jpg"
		}
	}

	body, err := e.postImage(ctx, "/detect", frame)
	if err != nil {
		return nil, err
	}

	var detResp detectResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200]
		}
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", bodyPreview, err)
	}
	if detResp.Error != "" {
		return nil, fmt.Errorf("API error: %s", detResp.Error)
	}

	detections := make([]domain.Detection, 0, len(detResp.Faces))
	for i, f := range detResp.Faces {
		if len(f.Embedding) != e.dimension {
			e.logger.Warn("dropping detection with unexpected embedding size",
				"frame", frame.Source, "index", i, "got", len(f.Embedding), "want", e.dimension)
			continue
		}
		detections = append(detections, domain.Detection{
			Box:       scaleBox(f.Box, scale),
			Score:     f.Score,
			Embedding: f.Embedding,
		})
	}
	return detections, nil
}

func (e *HTTPExtractor) postImage(ctx context.Context, endpoint string, frame domain.Frame) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := "frame.jpg"
	if frame.Source != "" {
		filename = filepath.Base(frame.Source)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(frame.Data); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (e *HTTPExtractor) Dimension() int {
	return e.dimension
}

func (e *HTTPExtractor) ModelName() string {
	return e.model
}
