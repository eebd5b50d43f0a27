// Package scoring runs a full scoring pass of every stored lead against an
// offer and serves the stored results.
package scoring

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/lead-scorer/internal/intent"
	"github.com/spigell/lead-scorer/internal/logger"
	"github.com/spigell/lead-scorer/internal/metrics"
	"github.com/spigell/lead-scorer/internal/model"
	"github.com/spigell/lead-scorer/internal/rules"
	"github.com/spigell/lead-scorer/internal/storage"
)

const defaultWorkers = 4

// Classifier gives the AI half of a lead score. It must not fail.
type Classifier interface {
	Classify(ctx context.Context, lead model.Lead, offer model.Offer) intent.Assessment
}

// Config tunes a scoring run.
type Config struct {
	// Workers bounds how many leads are classified at once.
	Workers int `mapstructure:"workers"`
}

type Service struct {
	store      storage.Store
	rules      *rules.Scorer
	classifier Classifier
	workers    int
	logger     *zap.Logger
}

func New(store storage.Store, scorer *rules.Scorer, classifier Classifier, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if scorer == nil {
		scorer = rules.New(rules.DefaultConfig())
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Service{
		store:      store,
		rules:      scorer,
		classifier: classifier,
		workers:    workers,
		logger:     log,
	}
}

type scored struct {
	index  int
	result model.ScoreResult
}

// Run replaces every stored result of the offer with a fresh score for each
// lead and returns the new rows in lead order. A missing offer fails with
// storage.ErrNotFound before anything is written.
func (s *Service) Run(ctx context.Context, offerID string) (rows []model.ResultRow, err error) {
	started := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
		}
		metrics.ObserveRun(status, time.Since(started))
	}()

	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("loading offer: %w", err)
	}

	leads, err := s.store.ListLeads(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.store.DeleteScoreResults(ctx, offer.ID); err != nil {
		return nil, fmt.Errorf("deleting previous results: %w", err)
	}

	log := s.logger.With(zap.String(logger.FieldOfferID, offer.ID))
	log.Info("scoring leads", zap.Int("leads", len(leads)), zap.Int("workers", s.workers))

	results := make([]model.ScoreResult, len(leads))
	out := make(chan scored)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for item := range out {
			if err := s.store.CreateScoreResult(gctx, &item.result); err != nil {
				return fmt.Errorf("saving result for lead %s: %w", item.result.LeadID, err)
			}
			results[item.index] = item.result
			metrics.RecordLeadScored(string(item.result.Intent))
		}
		return nil
	})

	g.Go(func() error {
		defer close(out)

		workers, wctx := errgroup.WithContext(gctx)
		workers.SetLimit(s.workers)

		for i, lead := range leads {
			if wctx.Err() != nil {
				break
			}
			workers.Go(func() error {
				result := s.score(wctx, offer, lead)
				select {
				case out <- scored{index: i, result: result}:
					return nil
				case <-wctx.Done():
					return wctx.Err()
				}
			})
		}

		return workers.Wait()
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring offer %s: %w", offer.ID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring offer %s: %w", offer.ID, err)
	}

	log.Info("scoring completed", zap.Int("results", len(results)), zap.Duration("elapsed", time.Since(started)))
	return model.Rows(results), nil
}

// Results returns the stored rows of an offer without scoring anything.
func (s *Service) Results(ctx context.Context, offerID string) ([]model.ResultRow, error) {
	if _, err := s.store.GetOffer(ctx, offerID); err != nil {
		return nil, fmt.Errorf("loading offer: %w", err)
	}

	results, err := s.store.ListScoreResults(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	return model.Rows(results), nil
}

func (s *Service) score(ctx context.Context, offer model.Offer, lead model.Lead) model.ScoreResult {
	rulePoints, ruleReasoning := s.rules.Score(lead, offer)
	assessment := s.classify(ctx, lead, offer)

	s.logger.Debug("lead scored",
		logger.ScoreFields(offer.ID, lead.ID, string(assessment.Intent), rulePoints, assessment.Points)...,
	)

	return model.ScoreResult{
		LeadID:    lead.ID,
		OfferID:   offer.ID,
		Lead:      lead,
		Intent:    assessment.Intent,
		Score:     rulePoints + assessment.Points,
		Reasoning: ruleReasoning + "; " + assessment.Reasoning,
	}
}

// classify isolates a single lead from a misbehaving classifier.
func (s *Service) classify(ctx context.Context, lead model.Lead, offer model.Offer) (assessment intent.Assessment) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("AI scoring panicked",
				append(logger.ScoringFields(offer.ID, lead.ID), zap.Any("panic", r))...,
			)
			assessment = intent.Assessment{
				Points:    0,
				Intent:    model.IntentUnknown,
				Reasoning: fmt.Sprintf("AI scoring failed: %v", r),
			}
		}
	}()

	return s.classifier.Classify(ctx, lead, offer)
}
