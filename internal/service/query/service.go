// Package query runs the query-and-persist pipeline: analyze a submission
// with the sentiment gateway, then store the completed record.
package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/albertshoes/support/backend/internal/gateway/storage"
	"github.com/albertshoes/support/backend/internal/model/query"
)

// Analyzer is the sentiment-gateway contract the service depends on.
type Analyzer interface {
	DetectSentiment(ctx context.Context, text string) (string, error)
	DetectDominantLanguage(ctx context.Context, text string) (string, error)
}

// Repository is the persistence-gateway contract the service depends on.
type Repository interface {
	Put(ctx context.Context, record query.Record) error
	Get(ctx context.Context, id string) (query.Record, error)
	Scan(ctx context.Context) ([]query.Record, error)
}

// Service implements submit and read operations over user-query records.
type Service struct {
	analyzer Analyzer
	repo     Repository
	log      zerolog.Logger
	now      func() time.Time
}

// NewService wires the query service to its two gateways.
func NewService(analyzer Analyzer, repo Repository, log zerolog.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		repo:     repo,
		log:      log,
		now:      time.Now,
	}
}

// Submit runs the full pipeline for one submission. A record is written only
// after both sentiment and language have been obtained, so storage never
// holds partial records. Exactly one durable write happens per success.
func (s *Service) Submit(ctx context.Context, text string) (query.Record, error) {
	if strings.TrimSpace(text) == "" {
		return query.Record{}, ErrEmptyText
	}
	if len(text) > MaxTextBytes {
		return query.Record{}, ErrTextTooLong
	}

	s.log.Info().Msg("received user query")
	s.log.Debug().Str("text", text).Msg("analyzing submission")

	sentiment, err := s.analyzer.DetectSentiment(ctx, text)
	if err != nil {
		return query.Record{}, &UpstreamError{Op: "sentiment detection", Err: err}
	}

	language, err := s.analyzer.DetectDominantLanguage(ctx, text)
	if err != nil {
		return query.Record{}, &UpstreamError{Op: "language detection", Err: err}
	}

	record := query.Record{
		ID:        uuid.NewString(),
		Text:      text,
		Sentiment: sentiment,
		Language:  language,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}

	s.log.Debug().Str("id", record.ID).Msg("storing user query")
	if err := s.repo.Put(ctx, record); err != nil {
		return query.Record{}, &StorageError{Op: "put", Err: err}
	}

	return record, nil
}

// List returns every stored record. Scan order is undefined.
func (s *Service) List(ctx context.Context) ([]query.Record, error) {
	s.log.Info().Msg("retrieving user queries")
	records, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, &StorageError{Op: "scan", Err: err}
	}
	s.log.Debug().Int("total", len(records)).Msg("retrieved user queries")
	return records, nil
}

// Get fetches one record by id. An absent record yields ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (query.Record, error) {
	s.log.Debug().Str("id", id).Msg("retrieving user query")
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return query.Record{}, ErrNotFound
		}
		return query.Record{}, &StorageError{Op: "get", Err: err}
	}
	return record, nil
}
