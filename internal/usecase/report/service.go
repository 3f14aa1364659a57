// Package report owns the item reporting lifecycle: validation, persistence,
// similarity registration, and match resolution for found items.
package report

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/foundry-app/foundry/internal/domain"
	"github.com/foundry-app/foundry/internal/usecase/match"
)

// MatchingStatus tells the caller how far similarity processing got.
// Registration and matching are best effort, so a report is created even
// when this ends up pending.
type MatchingStatus string

const (
	MatchingDisabled   MatchingStatus = "disabled"
	MatchingPending    MatchingStatus = "pending"
	MatchingRegistered MatchingStatus = "registered"
	MatchingMatched    MatchingStatus = "matched"
)

// Input is a new lost or found report.
type Input struct {
	ItemType    string
	Description string
	Location    string
	EventDate   time.Time
	Contact     domain.Contact
	ImageURL    string
}

// Result is the outcome of creating a report.
type Result struct {
	Item     domain.Item
	Matching MatchingStatus
	Matches  []match.Match
}

// Service handles the report lifecycle.
type Service struct {
	store      Store
	similarity SimilarityClient
	resolver   Resolver
	logger     *zap.Logger
}

// New creates a report service. similarity and resolver may be nil when
// the similarity engine is switched off.
func New(store Store, similarity SimilarityClient, resolver Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, similarity: similarity, resolver: resolver, logger: logger}
}

// Create validates and persists a new report, then registers it with the
// similarity service. Found items additionally go through match
// resolution. Similarity failures degrade to MatchingPending; the stored
// report is returned either way.
func (s *Service) Create(ctx context.Context, reportType domain.ReportType, in Input) (Result, error) {
	if !reportType.Valid() {
		return Result{}, domain.NewValidationError("reportType")
	}
	if err := validate(reportType, in); err != nil {
		return Result{}, err
	}

	item, err := s.store.Insert(ctx, domain.Item{
		ReportType:  reportType,
		ItemType:    in.ItemType,
		Description: in.Description,
		Location:    in.Location,
		EventDate:   in.EventDate,
		Contact:     in.Contact,
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		return Result{}, fmt.Errorf("insert item: %w", err)
	}

	if s.similarity == nil {
		return Result{Item: item, Matching: MatchingDisabled}, nil
	}

	reg, err := s.similarity.Register(ctx, domain.RegisterPayload{
		ImageURL:    item.ImageURL,
		Description: item.Description,
		Location:    item.Location,
		Category:    item.ItemType,
		ReportType:  item.ReportType,
	})
	if err != nil {
		s.logger.Warn("similarity registration failed, report kept without match id",
			zap.String("item_id", item.ID),
			zap.Error(err),
		)
		return Result{Item: item, Matching: MatchingPending}, nil
	}

	if attached, err := s.attachExternalID(ctx, item, reg.ExternalID); err != nil {
		s.logger.Warn("failed to persist similarity id",
			zap.String("item_id", item.ID),
			zap.Error(err),
		)
	} else {
		item = attached
	}

	result := Result{Item: item, Matching: MatchingRegistered}
	if item.ReportType == domain.ReportFound && s.resolver != nil {
		report := s.resolver.Resolve(ctx, item, reg.EmbeddingRef)
		if len(report.Matches) > 0 {
			result.Matching = MatchingMatched
			result.Matches = report.Matches
			// Resolve advanced the stored status; reflect it in the response.
			result.Item.Status = domain.StatusMatched
		}
	}
	return result, nil
}

// Get returns a single report by id.
func (s *Service) Get(ctx context.Context, id string) (domain.Item, error) {
	return s.store.GetByID(ctx, id)
}

// Delete removes a report and returns the removed record. When the item
// was registered with a similarity backend that supports removal, its
// registration is dropped best effort.
func (s *Service) Delete(ctx context.Context, id string) (domain.Item, error) {
	item, err := s.store.Delete(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}

	if item.Registered() {
		if u, ok := s.similarity.(unregisterer); ok {
			if err := u.Unregister(ctx, item.ExternalMatchID); err != nil {
				s.logger.Warn("failed to remove similarity registration",
					zap.String("item_id", item.ID),
					zap.String("external_id", item.ExternalMatchID),
					zap.Error(err),
				)
			}
		}
	}
	return item, nil
}

// unregisterer is implemented by similarity backends that can drop a
// registration again. The external matcher service has no such endpoint.
type unregisterer interface {
	Unregister(ctx context.Context, externalID string) error
}

func (s *Service) attachExternalID(ctx context.Context, item domain.Item, externalID string) (domain.Item, error) {
	existed, err := s.store.Update(ctx, item.ID, domain.Patch{ExternalMatchID: &externalID})
	if err != nil {
		return domain.Item{}, err
	}
	if !existed {
		return domain.Item{}, domain.ErrNotFound
	}
	item.ExternalMatchID = externalID
	return item, nil
}

func validate(reportType domain.ReportType, in Input) error {
	var missing []string
	if in.ItemType == "" {
		missing = append(missing, "itemType")
	}
	if in.Description == "" {
		missing = append(missing, "description")
	}
	if in.Location == "" {
		missing = append(missing, "location")
	}
	if in.EventDate.IsZero() {
		if reportType == domain.ReportLost {
			missing = append(missing, "dateLost")
		} else {
			missing = append(missing, "dateFound")
		}
	}
	if reportType == domain.ReportFound && in.Contact.Phone == "" {
		missing = append(missing, "contact.phone")
	}
	if len(missing) > 0 {
		return domain.NewValidationError(missing...)
	}
	return nil
}
