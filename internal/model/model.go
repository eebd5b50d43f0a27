// Package model holds the records shared by the scoring pipeline and its storage.
package model

import "time"

// Intent is the buying-readiness label assigned to a lead for an offer.
type Intent string

const (
	IntentLow    Intent = "Low"
	IntentMedium Intent = "Medium"
	IntentHigh   Intent = "High"
	// IntentUnknown marks a lead whose AI scoring failed outright.
	IntentUnknown Intent = "Unknown"
)

// Offer is the product or campaign leads are scored against.
// IdealUseCases doubles as the ideal customer profile industry list.
type Offer struct {
	ID            string    `json:"id" db:"id" bson:"_id"`
	Name          string    `json:"name" db:"name" bson:"name"`
	ValueProps    []string  `json:"value_props" db:"-" bson:"value_props"`
	IdealUseCases []string  `json:"ideal_use_cases" db:"-" bson:"ideal_use_cases"`
	CreatedAt     time.Time `json:"created_at" db:"created_at" bson:"created_at"`
}

// Lead is a single uploaded prospect. Any field may be empty.
type Lead struct {
	ID          string    `json:"id" db:"id" bson:"_id"`
	Name        string    `json:"name" db:"name" bson:"name"`
	Role        string    `json:"role" db:"role" bson:"role"`
	Company     string    `json:"company" db:"company" bson:"company"`
	Industry    string    `json:"industry" db:"industry" bson:"industry"`
	Location    string    `json:"location" db:"location" bson:"location"`
	LinkedInBio string    `json:"linkedin_bio" db:"linkedin_bio" bson:"linkedin_bio"`
	UploadedAt  time.Time `json:"uploaded_at" db:"uploaded_at" bson:"uploaded_at"`
}

// Complete reports whether every descriptive field of the lead is filled in.
func (l Lead) Complete() bool {
	for _, field := range []string{l.Name, l.Role, l.Company, l.Industry, l.Location, l.LinkedInBio} {
		if field == "" {
			return false
		}
	}
	return true
}

// ScoreResult ties one lead to one offer. A new scoring run for the offer
// supersedes it; it is never updated in place.
type ScoreResult struct {
	ID        string    `json:"id" bson:"_id"`
	LeadID    string    `json:"lead_id" bson:"lead_id"`
	OfferID   string    `json:"offer_id" bson:"offer_id"`
	Lead      Lead      `json:"lead" bson:"lead"`
	Intent    Intent    `json:"intent" bson:"intent"`
	Score     int       `json:"score" bson:"score"`
	Reasoning string    `json:"reasoning" bson:"reasoning"`
	ScoredAt  time.Time `json:"scored_at" bson:"scored_at"`
}

// ResultRow is the flat view of a score result handed to callers.
type ResultRow struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Company   string `json:"company"`
	Intent    Intent `json:"intent"`
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// Row flattens the result together with its lead snapshot.
func (r ScoreResult) Row() ResultRow {
	return ResultRow{
		Name:      r.Lead.Name,
		Role:      r.Lead.Role,
		Company:   r.Lead.Company,
		Intent:    r.Intent,
		Score:     r.Score,
		Reasoning: r.Reasoning,
	}
}

// Rows flattens a list of results preserving order.
func Rows(results []ScoreResult) []ResultRow {
	rows := make([]ResultRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, r.Row())
	}
	return rows
}
