// Package match resolves similarity candidates for a newly reported found
// item against open lost reports and dispatches match notifications.
package match

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/foundry-app/foundry/internal/domain"
	"github.com/foundry-app/foundry/internal/metrics"
)

const (
	// matchThreshold is the hard confidence floor. Candidates must score
	// strictly above it to count as a match.
	matchThreshold = 0.7
	// topK is how many neighbours to request from the similarity service.
	topK = 5
)

// Match is one resolved pairing of a found item with an open lost report.
type Match struct {
	LostItem domain.Item
	Score    float64
	Notified bool
}

// Report summarises one resolution run. Matches keep the similarity
// service's descending score order.
type Report struct {
	Matches []Match
}

// Service is the match resolver.
type Service struct {
	similarity SimilarityClient
	items      ItemStore
	notifier   Notifier
	logger     *zap.Logger
}

// New creates a match resolver.
func New(similarity SimilarityClient, items ItemStore, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{similarity: similarity, items: items, notifier: notifier, logger: logger}
}

// Resolve looks up neighbours of the given found item and pairs it with
// lost reports scoring above the threshold. Everything here is best
// effort: an upstream failure yields an empty report, and one bad
// candidate never blocks the rest.
func (s *Service) Resolve(ctx context.Context, found domain.Item, embeddingRef string) Report {
	candidates, err := s.similarity.FindSimilar(ctx, embeddingRef, topK)
	if err != nil {
		s.logger.Warn("similarity lookup failed, skipping match resolution",
			zap.String("item_id", found.ID),
			zap.Error(err),
		)
		return Report{}
	}

	var report Report
	for _, c := range candidates {
		if c.Score <= matchThreshold {
			continue
		}

		m, err := s.resolveCandidate(ctx, found, c)
		if err != nil {
			s.logger.Warn("candidate resolution failed",
				zap.String("item_id", found.ID),
				zap.String("external_id", c.ExternalID),
				zap.Float64("score", c.Score),
				zap.Error(err),
			)
			continue
		}
		report.Matches = append(report.Matches, m)
		metrics.MatchesResolvedTotal.Inc()
	}

	if len(report.Matches) > 0 {
		s.markMatched(ctx, found.ID)
	}
	return report
}

func (s *Service) resolveCandidate(ctx context.Context, found domain.Item, c domain.Candidate) (Match, error) {
	lost, err := s.items.FindByExternalID(ctx, domain.ReportLost, c.ExternalID)
	if err != nil {
		return Match{}, fmt.Errorf("find lost item: %w", err)
	}

	s.markMatched(ctx, lost.ID)

	m := Match{LostItem: lost, Score: c.Score}
	if lost.Contact.IsEmpty() {
		s.logger.Info("match found but lost report has no contact, skipping notification",
			zap.String("lost_id", lost.ID),
			zap.String("found_id", found.ID),
		)
		return m, nil
	}

	if err := s.notifier.Notify(ctx, lost, found, c.Score); err != nil {
		s.logger.Warn("match notification failed",
			zap.String("lost_id", lost.ID),
			zap.String("found_id", found.ID),
			zap.Error(err),
		)
		return m, nil
	}

	m.Notified = true
	s.logger.Info("match notification dispatched",
		zap.String("lost_id", lost.ID),
		zap.String("found_id", found.ID),
		zap.Float64("score", c.Score),
	)
	return m, nil
}

// markMatched advances an item to matched. Failures are logged only; the
// match itself already happened.
func (s *Service) markMatched(ctx context.Context, id string) {
	matched := domain.StatusMatched
	if _, err := s.items.Update(ctx, id, domain.Patch{Status: &matched}); err != nil {
		s.logger.Warn("failed to mark item matched",
			zap.String("item_id", id),
			zap.Error(err),
		)
	}
}
