package service

import (
	"context"
	"fmt"
	"strings"

	"naalli/internal/analytics"
	"naalli/internal/assistant"
	"naalli/internal/domain"

	"github.com/rs/zerolog"
)

type AssistantService struct {
	generator domain.Generator
	analytics *AnalyticsService
	logger    *zerolog.Logger
}

// NewAssistantService builds the service; a nil generator disables Ask.
func NewAssistantService(generator domain.Generator, analytics *AnalyticsService, logger *zerolog.Logger) *AssistantService {
	return &AssistantService{generator: generator, analytics: analytics, logger: logger}
}

func (s *AssistantService) Enabled() bool {
	return s.generator != nil
}

func (s *AssistantService) Suggestions() []string {
	return assistant.Suggestions()
}

// Ask sends the filtered bookings and the question to the model.
func (s *AssistantService) Ask(ctx context.Context, f analytics.Filter, question string) (string, error) {
	if s.generator == nil {
		return "", ErrAssistantDisabled
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidInput)
	}

	bookings, err := s.analytics.FilteredBookings(ctx, f)
	if err != nil {
		return "", err
	}
	if len(bookings) == 0 {
		return "", ErrNoData
	}

	prompt, err := assistant.BuildPrompt(bookings, question)
	if err != nil {
		return "", err
	}

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error().Err(err).Int("bookings", len(bookings)).Msg("assistant request failed")
		return "", fmt.Errorf("%w: failed to query assistant: %w", ErrUpstream, err)
	}
	s.logger.Info().Int("bookings", len(bookings)).Msg("assistant answered")
	return answer, nil
}
