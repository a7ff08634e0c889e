// Package vision analyzes photographed ingredient labels with an LLM.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/allergenapp/backend/internal/domain"
)

// DefaultModel is used when no model is configured
const DefaultModel = "claude-sonnet-4-5-20250929"

const systemPrompt = `You read photographed food ingredient labels for people with allergies.
Answer with a single JSON object and nothing else:
{"status":"safe"|"danger"|"caution","detected":["allergen", ...],"alternatives":["product", ...]}
Use "caution" when the label is unreadable or you are unsure.`

var supportedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AnalyzerConfig holds configuration for the label analyzer
type AnalyzerConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int64
	Timeout    time.Duration
	MaxRetries int
}

// Analyzer sends label images to the Anthropic Messages API
type Analyzer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
}

// NewAnalyzer creates a label analyzer
func NewAnalyzer(cfg AnalyzerConfig, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Analyzer{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// AnalyzeLabel returns the model's raw text answer for the label image
func (a *Analyzer) AnalyzeLabel(ctx context.Context, image []byte, mediaType string, userAllergens []string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: image is empty", domain.ErrInvalidRequest)
	}

	mediaType = DetectMediaType(image, mediaType)
	if !IsSupportedMediaType(mediaType) {
		return "", fmt.Errorf("%w: unsupported image type %s", domain.ErrInvalidRequest, mediaType)
	}

	start := time.Now()
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(image)),
				anthropic.NewTextBlock(buildPrompt(userAllergens)),
			),
		},
	})
	if err != nil {
		a.logger.Error("label analysis request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", domain.ErrAcquisitionFailed, err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			a.logger.Debug("label analysis response",
				zap.Int("size", len(block.Text)),
				zap.Int64("tokens_in", message.Usage.InputTokens),
				zap.Int64("tokens_out", message.Usage.OutputTokens),
				zap.Duration("took", time.Since(start)))
			return block.Text, nil
		}
	}

	// No text block: hand back an empty answer so the caller records an unparseable analysis
	return "", nil
}

// DetectMediaType trusts a supported declared type and sniffs the bytes otherwise
func DetectMediaType(image []byte, declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if supportedMediaTypes[declared] {
		return declared
	}
	return http.DetectContentType(image)
}

// IsSupportedMediaType reports whether the model accepts images of this type
func IsSupportedMediaType(mediaType string) bool {
	return supportedMediaTypes[mediaType]
}

func buildPrompt(userAllergens []string) string {
	allergens := "none"
	if len(userAllergens) > 0 {
		allergens = strings.Join(userAllergens, ", ")
	}
	return fmt.Sprintf(
		"The user is allergic to: %s. Read the ingredient label in this image. "+
			"Set status to \"danger\" if any of those allergens are present, \"safe\" if none are, "+
			"list the ones you found in \"detected\" and suggest safer products in \"alternatives\".",
		allergens)
}
