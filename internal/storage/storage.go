// Package storage defines the persistence boundary of the scorer and ships
// an in-process implementation together with the shared helpers used by the
// database backed stores.
package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/lead-scorer/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is everything the scorer and the CLI need from persistence.
// Leads are listed by upload time, then ID. Score results follow the order
// of their leads.
type Store interface {
	CreateOffer(ctx context.Context, offer *model.Offer) error
	GetOffer(ctx context.Context, id string) (model.Offer, error)
	ListOffers(ctx context.Context) ([]model.Offer, error)

	CreateLeads(ctx context.Context, leads []model.Lead) error
	ListLeads(ctx context.Context) ([]model.Lead, error)

	DeleteScoreResults(ctx context.Context, offerID string) error
	CreateScoreResult(ctx context.Context, result *model.ScoreResult) error
	ListScoreResults(ctx context.Context, offerID string) ([]model.ScoreResult, error)

	Close(ctx context.Context) error
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// StampLeads fills missing IDs and upload times. Leads of one batch get
// upload times a millisecond apart so they keep their batch order in every
// backend.
func StampLeads(leads []model.Lead, now time.Time) {
	for i := range leads {
		if leads[i].ID == "" {
			leads[i].ID = NewID()
		}
		if leads[i].UploadedAt.IsZero() {
			leads[i].UploadedAt = now.Add(time.Duration(i) * time.Millisecond)
		}
	}
}

// SortLeads orders leads by upload time, then ID.
func SortLeads(leads []model.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		return leadLess(leads[i], leads[j])
	})
}

// SortResults orders results by their lead snapshot.
func SortResults(results []model.ScoreResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return leadLess(results[i].Lead, results[j].Lead)
	})
}

func leadLess(a, b model.Lead) bool {
	if !a.UploadedAt.Equal(b.UploadedAt) {
		return a.UploadedAt.Before(b.UploadedAt)
	}
	return a.ID < b.ID
}
