package extraction

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/common/metrics"
	"job-offer-pipeline/internal/models"
)

const llmPrompt = `You extract structured data from job postings.
Return a single JSON object and nothing else, with these keys:
  "language": ISO 639-1 code of the posting,
  "jobTitle": {"value": string, "confidence": number 0..1},
  "company": {"value": string, "confidence": number 0..1},
  "location": {"value": [string], "confidence": number 0..1},
  "contractType": [string],
  "type": "Job" or "Internship",
  "salary": [string], "duration": [string], "deadline": [string],
  "contacts": {"emails": [string], "urls": [string], "phones": [string]},
  "skills": [{"skill": string, "confidence": number 0..1}],
  "inferredDomain": string
Omit a key when the posting does not mention it. Do not invent values.

### POSTING
%s`

// LLMConfig tunes LLMExtractor.
type LLMConfig struct {
	ModelName     string
	MaxInputChars int
	Timeout       time.Duration
}

// LLMExtractor asks a language model for the nested response shape.
type LLMExtractor struct {
	model  llms.Model
	cfg    LLMConfig
	logger logger.Logger
}

// NewGeminiModel builds the Google AI model used by the llm provider.
func NewGeminiModel(ctx context.Context, apiKey, modelName string) (llms.Model, error) {
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return model, nil
}

func NewLLMExtractor(model llms.Model, cfg LLMConfig, log logger.Logger) *LLMExtractor {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 20000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &LLMExtractor{
		model:  model,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "llm-extractor", "model": cfg.ModelName}),
	}
}

func (e *LLMExtractor) Extract(ctx context.Context, text string) (*models.ExtractionResult, error) {
	if e.model == nil {
		return nil, fmt.Errorf("%w: no model configured", apperrors.ErrExtractionUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	input := text
	if len(input) > e.cfg.MaxInputChars {
		input = strings.ToValidUTF8(input[:e.cfg.MaxInputChars], "")
	}

	start := time.Now()
	reply, err := llms.GenerateFromSinglePrompt(ctx, e.model, fmt.Sprintf(llmPrompt, input), llms.WithTemperature(0))
	metrics.ExtractionDuration.WithLabelValues("llm").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExtractionRequests.WithLabelValues("llm", "unavailable").Inc()
		e.logger.Warn("model call failed", map[string]interface{}{"error": err})
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExtractionUnavailable, err)
	}

	result, err := Normalize([]byte(stripCodeFence(reply)))
	if err != nil {
		metrics.ExtractionRequests.WithLabelValues("llm", "decode_error").Inc()
		e.logger.Warn("model reply rejected", map[string]interface{}{"error": err})
		return nil, err
	}

	metrics.ExtractionRequests.WithLabelValues("llm", "success").Inc()
	return complete(result, text), nil
}

// ExtractFromSource handles text files only; the model cannot read
// binary documents.
func (e *LLMExtractor) ExtractFromSource(ctx context.Context, content []byte, filename string) (*models.ExtractionResult, error) {
	if IsBinaryDocument(filename) {
		return nil, fmt.Errorf("%w: %s documents are not supported by the llm extractor",
			apperrors.ErrExtractionUnavailable, strings.ToLower(filepath.Ext(filename)))
	}
	return e.Extract(ctx, DecodeText(content))
}

func (e *LLMExtractor) Status(context.Context) models.ExtractorStatus {
	return models.ExtractorStatus{Available: e.model != nil, Endpoint: "llm:" + e.cfg.ModelName}
}

// stripCodeFence removes a markdown code fence some models wrap JSON in.
func stripCodeFence(reply string) string {
	s := strings.TrimSpace(reply)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
