// Package postgres stores offers, leads and score results in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/spigell/lead-scorer/internal/model"
	"github.com/spigell/lead-scorer/internal/storage"
)

const (
	offerInsert = `INSERT INTO offers (id, name, value_props, ideal_use_cases, created_at)
VALUES (:id, :name, :value_props, :ideal_use_cases, :created_at)`

	offerSelect = `SELECT id, name, value_props, ideal_use_cases, created_at FROM offers`

	leadInsert = `INSERT INTO leads (id, name, role, company, industry, location, linkedin_bio, uploaded_at)
VALUES (:id, :name, :role, :company, :industry, :location, :linkedin_bio, :uploaded_at)`

	leadSelect = `SELECT id, name, role, company, industry, location, linkedin_bio, uploaded_at
FROM leads ORDER BY uploaded_at, id`

	resultInsert = `INSERT INTO score_results (id, lead_id, offer_id, intent, score, reasoning, scored_at)
VALUES (:id, :lead_id, :offer_id, :intent, :score, :reasoning, :scored_at)`

	resultSelect = `SELECT r.id, r.lead_id, r.offer_id, r.intent, r.score, r.reasoning, r.scored_at,
       l.name, l.role, l.company, l.industry, l.location, l.linkedin_bio, l.uploaded_at
FROM score_results r
JOIN leads l ON l.id = r.lead_id
WHERE r.offer_id = $1
ORDER BY l.uploaded_at, l.id`
)

type offerRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	ValueProps    pq.StringArray `db:"value_props"`
	IdealUseCases pq.StringArray `db:"ideal_use_cases"`
	CreatedAt     time.Time      `db:"created_at"`
}

func toOfferRow(o model.Offer) offerRow {
	return offerRow{
		ID:            o.ID,
		Name:          o.Name,
		ValueProps:    pq.StringArray(o.ValueProps),
		IdealUseCases: pq.StringArray(o.IdealUseCases),
		CreatedAt:     o.CreatedAt,
	}
}

func (r offerRow) offer() model.Offer {
	return model.Offer{
		ID:            r.ID,
		Name:          r.Name,
		ValueProps:    []string(r.ValueProps),
		IdealUseCases: []string(r.IdealUseCases),
		CreatedAt:     r.CreatedAt,
	}
}

type resultRow struct {
	ID        string       `db:"id"`
	LeadID    string       `db:"lead_id"`
	OfferID   string       `db:"offer_id"`
	Intent    model.Intent `db:"intent"`
	Score     int          `db:"score"`
	Reasoning string       `db:"reasoning"`
	ScoredAt  time.Time    `db:"scored_at"`

	Name        string    `db:"name"`
	Role        string    `db:"role"`
	Company     string    `db:"company"`
	Industry    string    `db:"industry"`
	Location    string    `db:"location"`
	LinkedInBio string    `db:"linkedin_bio"`
	UploadedAt  time.Time `db:"uploaded_at"`
}

func toResultRow(r model.ScoreResult) resultRow {
	return resultRow{
		ID:        r.ID,
		LeadID:    r.LeadID,
		OfferID:   r.OfferID,
		Intent:    r.Intent,
		Score:     r.Score,
		Reasoning: r.Reasoning,
		ScoredAt:  r.ScoredAt,
	}
}

func (r resultRow) result() model.ScoreResult {
	return model.ScoreResult{
		ID:        r.ID,
		LeadID:    r.LeadID,
		OfferID:   r.OfferID,
		Intent:    r.Intent,
		Score:     r.Score,
		Reasoning: r.Reasoning,
		ScoredAt:  r.ScoredAt,
		Lead: model.Lead{
			ID:          r.LeadID,
			Name:        r.Name,
			Role:        r.Role,
			Company:     r.Company,
			Industry:    r.Industry,
			Location:    r.Location,
			LinkedInBio: r.LinkedInBio,
			UploadedAt:  r.UploadedAt,
		},
	}
}

// Store implements storage.Store on top of sqlx.
type Store struct {
	db *sqlx.DB
}

// New wraps an open connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects with the lib/pq driver. The connection is not verified;
// use Ping for that.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	return New(db), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreateOffer(ctx context.Context, offer *model.Offer) error {
	if offer.ID == "" {
		offer.ID = storage.NewID()
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.NamedExecContext(ctx, offerInsert, toOfferRow(*offer)); err != nil {
		return fmt.Errorf("inserting offer: %w", err)
	}
	return nil
}

func (s *Store) GetOffer(ctx context.Context, id string) (model.Offer, error) {
	var row offerRow
	err := s.db.GetContext(ctx, &row, offerSelect+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Offer{}, fmt.Errorf("offer %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return model.Offer{}, fmt.Errorf("selecting offer: %w", err)
	}
	return row.offer(), nil
}

func (s *Store) ListOffers(ctx context.Context) ([]model.Offer, error) {
	var rows []offerRow
	if err := s.db.SelectContext(ctx, &rows, offerSelect+` ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("selecting offers: %w", err)
	}

	offers := make([]model.Offer, 0, len(rows))
	for _, row := range rows {
		offers = append(offers, row.offer())
	}
	return offers, nil
}

// CreateLeads inserts the batch in one transaction.
func (s *Store) CreateLeads(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	storage.StampLeads(leads, time.Now().UTC())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, lead := range leads {
		if _, err := tx.NamedExecContext(ctx, leadInsert, lead); err != nil {
			return fmt.Errorf("inserting lead %s: %w", lead.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing leads: %w", err)
	}
	return nil
}

func (s *Store) ListLeads(ctx context.Context) ([]model.Lead, error) {
	leads := []model.Lead{}
	if err := s.db.SelectContext(ctx, &leads, leadSelect); err != nil {
		return nil, fmt.Errorf("selecting leads: %w", err)
	}
	return leads, nil
}

func (s *Store) DeleteScoreResults(ctx context.Context, offerID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM score_results WHERE offer_id = $1`, offerID); err != nil {
		return fmt.Errorf("deleting score results: %w", err)
	}
	return nil
}

func (s *Store) CreateScoreResult(ctx context.Context, result *model.ScoreResult) error {
	if result.ID == "" {
		result.ID = storage.NewID()
	}
	if result.ScoredAt.IsZero() {
		result.ScoredAt = time.Now().UTC()
	}

	if _, err := s.db.NamedExecContext(ctx, resultInsert, toResultRow(*result)); err != nil {
		return fmt.Errorf("inserting score result: %w", err)
	}
	return nil
}

func (s *Store) ListScoreResults(ctx context.Context, offerID string) ([]model.ScoreResult, error) {
	var rows []resultRow
	if err := s.db.SelectContext(ctx, &rows, resultSelect, offerID); err != nil {
		return nil, fmt.Errorf("selecting score results: %w", err)
	}

	results := make([]model.ScoreResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.result())
	}
	return results, nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}
