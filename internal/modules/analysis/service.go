// Package analysis orchestrates request fingerprinting, the tiered cache and
// the generation strategies.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/lifecandle/internal/cache"
	"github.com/aristath/lifecandle/internal/domain"
	"github.com/aristath/lifecandle/internal/modules/fingerprint"
)

// ErrNotFound is returned by Find when no tier holds the fingerprint
var ErrNotFound = errors.New("analysis not found")

// Strategy names a generation path
type Strategy string

const (
	StrategyWeighted   Strategy = "weighted"
	StrategyRandomWalk Strategy = "random_walk"
	StrategyExternal   Strategy = "external"
)

// Credentials that select a local synthesizer instead of the external model
const (
	DemoCredential   = "demo"
	RandomCredential = "random"
)

// Generator produces a result through the external model
type Generator interface {
	Generate(ctx context.Context, req domain.AnalysisRequest, apiKey string) (domain.AnalysisResult, error)
}

// Synthesizer produces a result locally
type Synthesizer interface {
	Weighted(req domain.AnalysisRequest) domain.AnalysisResult
	RandomWalk(req domain.AnalysisRequest) domain.AnalysisResult
}

// Cache is the subset of the tiered cache the service needs
type Cache interface {
	Lookup(ctx context.Context, fingerprint string) (*domain.AnalysisResult, cache.Level)
	StoreAsync(fingerprint string, result domain.AnalysisResult)
}

// Outcome is one answered analysis request
type Outcome struct {
	Fingerprint string
	Level       cache.Level
	Strategy    Strategy
	Result      domain.AnalysisResult
}

// Service answers analysis requests
type Service struct {
	cache         Cache
	synthesizer   Synthesizer
	generator     Generator
	defaultAPIKey string
	log           zerolog.Logger
}

// NewService creates the orchestrator. defaultAPIKey is used when a request
// carries no key of its own.
func NewService(c Cache, synthesizer Synthesizer, generator Generator, defaultAPIKey string, log zerolog.Logger) *Service {
	return &Service{
		cache:         c,
		synthesizer:   synthesizer,
		generator:     generator,
		defaultAPIKey: defaultAPIKey,
		log:           log.With().Str("component", "analysis").Logger(),
	}
}

// credential returns the request key, falling back to the server default
func (s *Service) credential(req domain.AnalysisRequest) string {
	if key := strings.TrimSpace(req.APIKey); key != "" {
		return key
	}
	return strings.TrimSpace(s.defaultAPIKey)
}

// SelectStrategy maps a credential to a generation path
func SelectStrategy(credential string) (Strategy, error) {
	credential = strings.TrimSpace(credential)
	switch {
	case credential == "":
		return "", fmt.Errorf("%w: please provide an API key in the request or set GEMINI_API_KEY", domain.ErrConfiguration)
	case strings.EqualFold(credential, DemoCredential):
		return StrategyWeighted, nil
	case strings.EqualFold(credential, RandomCredential):
		return StrategyRandomWalk, nil
	default:
		return StrategyExternal, nil
	}
}

// Analyze returns the result for req, from cache when possible. Fresh results
// are stored in the background; the caller never waits for persistence.
func (s *Service) Analyze(ctx context.Context, req domain.AnalysisRequest) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fp := fingerprint.Compute(req)
	if cached, level := s.cache.Lookup(ctx, fp); cached != nil {
		s.log.Debug().Str("fingerprint", fp).Str("level", string(level)).Msg("Cache hit")
		return &Outcome{Fingerprint: fp, Level: level, Result: *cached}, nil
	}

	apiKey := s.credential(req)
	strategy, err := SelectStrategy(apiKey)
	if err != nil {
		return nil, err
	}

	var result domain.AnalysisResult
	switch strategy {
	case StrategyWeighted:
		result = s.synthesizer.Weighted(req)
	case StrategyRandomWalk:
		result = s.synthesizer.RandomWalk(req)
	default:
		result, err = s.generator.Generate(ctx, req, apiKey)
		if err != nil {
			s.log.Error().Err(err).Str("fingerprint", fp).Msg("External generation failed")
			return nil, err
		}
	}

	s.cache.StoreAsync(fp, result)
	s.log.Info().
		Str("fingerprint", fp).
		Str("strategy", string(strategy)).
		Int("points", len(result.Timeline)).
		Msg("Analysis generated")

	return &Outcome{Fingerprint: fp, Level: cache.LevelMiss, Strategy: strategy, Result: result}, nil
}

// Find returns a previously stored result by fingerprint
func (s *Service) Find(ctx context.Context, fp string) (*domain.AnalysisResult, error) {
	if !fingerprint.Valid(fp) {
		return nil, fmt.Errorf("%w: malformed fingerprint", domain.ErrInvalidInput)
	}
	result, _ := s.cache.Lookup(ctx, fp)
	if result == nil {
		return nil, ErrNotFound
	}
	return result, nil
}
