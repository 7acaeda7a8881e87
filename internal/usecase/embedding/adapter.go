package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/qdex/internal/domain"
)

// Adapter turns one text into one fixed-dimension vector.
// It makes a single provider call per text and never retries.
type Adapter struct {
	inner    domain.Embedder
	provider string
	model    string
	dim      int
	logger   *zap.Logger
}

// NewAdapter wraps an embedder (possibly cached) with dimension checking and logging.
func NewAdapter(inner domain.Embedder, provider, model string, dim int, logger *zap.Logger) *Adapter {
	return &Adapter{
		inner:    inner,
		provider: provider,
		model:    model,
		dim:      dim,
		logger:   logger,
	}
}

// Embed returns the embedding of text.
// Provider failures match domain.ErrEmbeddingProviderError; a vector of the
// wrong length matches domain.ErrVectorDimMismatch.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.Invalidf("text to embed is empty")
	}

	start := time.Now()
	result, err := a.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		a.logger.Error("Embedding request failed",
			zap.String("provider", a.provider),
			zap.String("model", a.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if errors.Is(err, domain.ErrEmbeddingProviderError) {
			return nil, fmt.Errorf("embed: %w", err)
		}
		return nil, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}

	if len(result.Embedding) != a.dim {
		a.logger.Error("Embedding has unexpected dimensions",
			zap.String("model", a.model),
			zap.Int("got", len(result.Embedding)),
			zap.Int("want", a.dim),
		)
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrVectorDimMismatch, len(result.Embedding), a.dim)
	}

	a.logger.Debug("Embedding request completed",
		zap.String("provider", a.provider),
		zap.String("model", a.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result.Embedding, nil
}
