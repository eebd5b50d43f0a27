// Package rules computes the deterministic part of a lead score.
package rules

import (
	"fmt"
	"strings"

	"github.com/spigell/lead-scorer/internal/model"
)

// MaxPoints is the highest score the rule layer can award.
const MaxPoints = 50

// Config holds the keyword lists used by the role rule.
type Config struct {
	DecisionMakers []string `mapstructure:"decision-makers"`
	Influencers    []string `mapstructure:"influencers"`
}

// DefaultConfig returns the keyword lists the scorer ships with.
func DefaultConfig() Config {
	return Config{
		DecisionMakers: []string{"head", "ceo", "cto", "founder", "manager", "director", "vp", "vice president"},
		Influencers:    []string{"lead", "executive", "specialist", "analyst", "principal", "senior"},
	}
}

// Decision is the outcome of a single rule.
type Decision struct {
	Points int
	Reason string
}

func (d Decision) String() string {
	return fmt.Sprintf("%s (+%d)", d.Reason, d.Points)
}

// Rule is one scoring category. Rules are independent of each other.
type Rule interface {
	Name() string
	Apply(lead model.Lead, offer model.Offer) Decision
}

// Scorer runs its rules in order and sums their points.
type Scorer struct {
	rules []Rule
}

// New builds a scorer with the role, industry and completeness rules.
// Empty keyword lists in cfg fall back to the defaults.
func New(cfg Config) *Scorer {
	defaults := DefaultConfig()
	if len(cfg.DecisionMakers) == 0 {
		cfg.DecisionMakers = defaults.DecisionMakers
	}
	if len(cfg.Influencers) == 0 {
		cfg.Influencers = defaults.Influencers
	}

	return &Scorer{rules: []Rule{
		newRoleRule(cfg.DecisionMakers, cfg.Influencers),
		industryRule{},
		completenessRule{},
	}}
}

// Score returns the rule points (0..MaxPoints) and the "; "-joined decisions.
func (s *Scorer) Score(lead model.Lead, offer model.Offer) (int, string) {
	points := 0
	reasons := make([]string, 0, len(s.rules))
	for _, rule := range s.rules {
		decision := rule.Apply(lead, offer)
		points += decision.Points
		reasons = append(reasons, decision.String())
	}

	return points, strings.Join(reasons, "; ")
}

type roleRule struct {
	decisionMakers []string
	influencers    []string
}

func newRoleRule(decisionMakers, influencers []string) roleRule {
	return roleRule{
		decisionMakers: lowerAll(decisionMakers),
		influencers:    lowerAll(influencers),
	}
}

func (roleRule) Name() string { return "role" }

func (r roleRule) Apply(lead model.Lead, _ model.Offer) Decision {
	role := strings.ToLower(lead.Role)
	switch {
	case containsAny(role, r.decisionMakers):
		return Decision{Points: 20, Reason: "Role is decision maker"}
	case containsAny(role, r.influencers):
		return Decision{Points: 10, Reason: "Role is influencer"}
	default:
		return Decision{Points: 0, Reason: "Role not relevant"}
	}
}

type industryRule struct{}

func (industryRule) Name() string { return "industry" }

// Apply awards the adjacent credit for any industry outside the ICP list.
func (industryRule) Apply(lead model.Lead, offer model.Offer) Decision {
	industry := strings.ToLower(lead.Industry)
	for _, useCase := range offer.IdealUseCases {
		if strings.ToLower(useCase) == industry {
			return Decision{Points: 20, Reason: "Industry matches ICP"}
		}
	}
	return Decision{Points: 10, Reason: "Industry adjacent"}
}

type completenessRule struct{}

func (completenessRule) Name() string { return "completeness" }

func (completenessRule) Apply(lead model.Lead, _ model.Offer) Decision {
	if lead.Complete() {
		return Decision{Points: 10, Reason: "All fields present"}
	}
	return Decision{Points: 0, Reason: "Missing some fields"}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
