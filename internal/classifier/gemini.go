package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "models/gemini-2.5-flash"

// Config configures a GeminiClassifier.
type Config struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	Timeout         time.Duration
}

// generator produces raw model text for a prompt. An error means the model
// could not be reached or returned nothing usable.
type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClassifier scores content with a Google Gemini model.
type GeminiClassifier struct {
	gen     generator
	close   func() error
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiClassifier connects to Gemini with cfg.APIKey.
func NewGeminiClassifier(ctx context.Context, cfg Config, logger *zap.Logger) (*GeminiClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 1000
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.ResponseMIMEType = "application/json"
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		MaxOutputTokens: genai.Ptr(cfg.MaxOutputTokens),
	}

	logger.Info("gemini classifier initialized",
		zap.String("model", cfg.Model),
		zap.Float32("temperature", cfg.Temperature),
	)

	return &GeminiClassifier{
		gen:     &genaiGenerator{model: model},
		close:   client.Close,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Close releases the underlying client.
func (g *GeminiClassifier) Close() error {
	if g.close == nil {
		return nil
	}
	return g.close()
}

// Classify implements Classifier.
func (g *GeminiClassifier) Classify(ctx context.Context, content string, ct ContentType) (*Result, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.gen.generate(ctx, BuildPrompt(content, ct))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	res, perr := Parse(text)
	if perr != nil {
		g.logger.Warn("classifier reply not understood, using fallback",
			zap.Error(perr),
			zap.Int("reply_len", len(text)),
		)
	}
	return res, nil
}

type genaiGenerator struct {
	model *genai.GenerativeModel
}

func (g *genaiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini response has no text parts")
	}
	return b.String(), nil
}
