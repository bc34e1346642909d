package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "job-offer-pipeline/internal/common/errors"
	apphttp "job-offer-pipeline/internal/common/http"
	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/common/metrics"
	"job-offer-pipeline/internal/models"
)

const (
	extractPath      = "/api/extract"
	batchExtractPath = "/api/batch-extract"
	healthPath       = "/health"

	maxStatusTimeout = 5 * time.Second
)

// Config is passed to NewClient; there is no package-level client state.
type Config struct {
	BaseURL          string
	Timeout          time.Duration
	MaxResponseBytes int64
}

// Client calls the HTTP extraction service.
type Client struct {
	baseURL       string
	http          *apphttp.Client
	statusTimeout time.Duration
	logger        logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	statusTimeout := timeout
	if statusTimeout > maxStatusTimeout {
		statusTimeout = maxStatusTimeout
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		http:          apphttp.NewClient(timeout, cfg.MaxResponseBytes),
		statusTimeout: statusTimeout,
		logger:        log.WithFields(map[string]interface{}{"component": "extraction-client"}),
	}
}

// Extract sends text as-is to the text endpoint.
func (c *Client) Extract(ctx context.Context, text string) (*models.ExtractionResult, error) {
	start := time.Now()
	body, err := c.http.PostJSON(ctx, c.baseURL+extractPath, map[string]string{"text": text})
	result, err := c.finish("text", start, body, err)
	if err != nil {
		return nil, err
	}
	return complete(result, text), nil
}

// ExtractFromSource forwards binary documents to the batch endpoint and
// routes everything else through Extract as UTF-8 text.
func (c *Client) ExtractFromSource(ctx context.Context, content []byte, filename string) (*models.ExtractionResult, error) {
	if !IsBinaryDocument(filename) {
		return c.Extract(ctx, DecodeText(content))
	}

	start := time.Now()
	body, err := c.http.PostFile(ctx, c.baseURL+batchExtractPath, "file", filename, content)
	result, err := c.finish("file", start, body, err)
	if err != nil {
		return nil, err
	}
	return complete(result, ""), nil
}

// Status probes the liveness endpoint. Any failure reports unavailable.
func (c *Client) Status(ctx context.Context) models.ExtractorStatus {
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	_, err := c.http.Get(ctx, c.baseURL+healthPath)
	if err != nil {
		c.logger.Debug("extractor health check failed", map[string]interface{}{"error": err})
	}
	return models.ExtractorStatus{Available: err == nil, Endpoint: c.baseURL}
}

func (c *Client) finish(operation string, start time.Time, body []byte, callErr error) (*models.ExtractionResult, error) {
	metrics.ExtractionDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if errors.Is(callErr, apphttp.ErrBodyTooLarge) {
		metrics.ExtractionRequests.WithLabelValues(operation, "decode_error").Inc()
		c.logger.Warn("extraction response rejected", map[string]interface{}{
			"operation": operation,
			"error":     callErr,
		})
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExtractionDecodeError, callErr)
	}
	if callErr != nil {
		metrics.ExtractionRequests.WithLabelValues(operation, "unavailable").Inc()
		return nil, c.unavailable(operation, callErr)
	}

	result, err := Normalize(body)
	if err != nil {
		metrics.ExtractionRequests.WithLabelValues(operation, "decode_error").Inc()
		c.logger.Warn("extraction response rejected", map[string]interface{}{
			"operation": operation,
			"error":     err,
		})
		return nil, err
	}

	metrics.ExtractionRequests.WithLabelValues(operation, "success").Inc()
	return result, nil
}

func (c *Client) unavailable(operation string, err error) error {
	fields := map[string]interface{}{"operation": operation, "error": err}

	var statusErr *apphttp.StatusError
	switch {
	case errors.As(err, &statusErr):
		fields["status"] = statusErr.StatusCode
	case errors.Is(err, context.DeadlineExceeded):
		fields["timeout"] = true
	}
	c.logger.Warn("extraction service call failed", fields)

	return fmt.Errorf("%w: %v", apperrors.ErrExtractionUnavailable, err)
}
