package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"text/template"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/phrazzld/coursegen/internal/config"
	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/generation"
)

// contentClient is the part of the genai Models service the generator uses.
type contentClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements generation.Generator using the Gemini API.
type Generator struct {
	logger      *slog.Logger
	client      contentClient
	model       string
	temperature float32
	templates   map[domain.Kind]*template.Template
	limiter     *rate.Limiter
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Generator from the LLM configuration.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(client.Models, logger, cfg)
}

func newGenerator(client contentClient, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.RequestsPerMinute < 0 {
		return nil, fmt.Errorf("%w: requests per minute cannot be negative", generation.ErrInvalidConfig)
	}

	templates, err := loadTemplates(cfg.PromptTemplateDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &Generator{
		logger:      logger.With("component", "gemini_generator", "model", cfg.ModelName),
		client:      client,
		model:       cfg.ModelName,
		temperature: cfg.Temperature,
		templates:   templates,
		limiter:     rate.NewLimiter(limit, 1),
	}, nil
}

// Generate renders the prompt for payload, calls the model once and decodes
// the JSON answer into the result type of the payload's kind.
func (g *Generator) Generate(ctx context.Context, payload domain.Payload) (domain.Result, error) {
	if err := domain.ValidatePayload(payload); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt(g.templates, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting for rate limiter: %w", generation.ErrTransientFailure, err)
	}

	log := g.logger.With("kind", payload.Kind())
	log.DebugContext(ctx, "calling Gemini API", "prompt_length", len(prompt))

	start := time.Now()
	resp, err := g.client.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		log.WarnContext(ctx, "Gemini API call failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, classifyError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		log.WarnContext(ctx, "unusable Gemini response", "error", err)
		return nil, err
	}

	result, err := decodeResult(payload.Kind(), text)
	if err != nil {
		log.WarnContext(ctx, "failed to decode Gemini response", "error", err, "response_length", len(text))
		return nil, err
	}

	log.InfoContext(ctx, "Gemini API call successful", "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// classifyError wraps an API error in the matching generation error.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
	}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
	}

	if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
	}
	return fmt.Errorf("%w: %w", generation.ErrGenerationFailed, err)
}

// responseText extracts the answer text, reporting safety blocks and empty
// answers as errors.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", generation.ErrInvalidResponse)
	}
	switch resp.Candidates[0].FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent,
		genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return "", fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, resp.Candidates[0].FinishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: %w", generation.ErrInvalidResponse, ErrEmptyResponse)
	}
	return text, nil
}

// decodeResult parses text as the JSON result of kind and validates it.
func decodeResult(kind domain.Kind, text string) (domain.Result, error) {
	var result domain.Result
	switch kind {
	case domain.KindMetadata:
		result = &domain.CourseMetadata{}
	case domain.KindModule:
		result = &domain.ModuleContent{}
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
	}

	if err := json.Unmarshal([]byte(stripCodeFence(text)), result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	if err := domain.ValidateResult(result); err != nil {
		return nil, fmt.Errorf("%w: %w", generation.ErrInvalidResponse, err)
	}
	return result, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// sometimes add even when asked for bare JSON.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
