package llm

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// APIErrorPrefix marks a reply that carries a provider failure instead of
// generated text. Callers detect it by substring.
const APIErrorPrefix = "Erro da API"

// Service wraps an LLMProvider and turns provider failures into marked
// reply text.
type Service struct {
	provider LLMProvider
}

// NewService builds the provider configured in the environment.
func NewService(ctx context.Context) (*Service, error) {
	cfg, err := LoadProviderFromEnv()
	if err != nil {
		return nil, err
	}

	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("provider", provider.GetProviderName()).
		Str("model", cfg.Model).
		Msg("🤖 LLM provider ready")

	return &Service{provider: provider}, nil
}

// NewServiceWithProvider wraps an existing provider.
func NewServiceWithProvider(provider LLMProvider) *Service {
	return &Service{provider: provider}
}

// Complete runs one generation. It never returns an error: a provider
// failure comes back as text starting with APIErrorPrefix.
func (s *Service) Complete(ctx context.Context, contextText, prompt string) string {
	reply, err := s.provider.GenerateResponse(ctx, contextText, prompt)
	if err != nil {
		log.Error().Err(err).Str("provider", s.provider.GetProviderName()).Msg("❌ LLM generation failed")
		return ErrorReply(err)
	}
	return reply
}

// GetProviderName returns current provider name
func (s *Service) GetProviderName() string {
	return s.provider.GetProviderName()
}

// ErrorReply renders a provider failure as reply text.
func ErrorReply(err error) string {
	return APIErrorPrefix + ": " + err.Error()
}

// IsErrorReply reports whether reply carries a provider failure.
func IsErrorReply(reply string) bool {
	return strings.Contains(reply, APIErrorPrefix)
}
