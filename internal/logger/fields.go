package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldOfferID is the structured log field key for the offer being scored.
	FieldOfferID = "offer_id"
	// FieldLeadID is the structured log field key for the lead being scored.
	FieldLeadID = "lead_id"
	// FieldIntent is the structured log field key for the classified buying intent.
	FieldIntent = "intent"
	// FieldRulePoints is the structured log field key for the rule-based points.
	FieldRulePoints = "rule_points"
	// FieldAIPoints is the structured log field key for the AI points.
	FieldAIPoints = "ai_points"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches the provided fields to the logger, defaulting to a
// no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns the fields describing the AI provider and model.
// Empty values are dropped.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the provider and model fields to the logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// ScoringFields identifies a single lead/offer pair in log entries.
func ScoringFields(offerID, leadID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldOfferID, Value: offerID},
		StringField{Key: FieldLeadID, Value: leadID},
	)
}

// ScoreFields describes a finished lead score: the lead/offer pair, the
// classified intent and both point halves.
func ScoreFields(offerID, leadID, intent string, rulePoints, aiPoints int) []zap.Field {
	fields := ScoringFields(offerID, leadID)
	fields = append(fields, StringFields(StringField{Key: FieldIntent, Value: intent})...)
	return append(fields,
		zap.Int(FieldRulePoints, rulePoints),
		zap.Int(FieldAIPoints, aiPoints),
	)
}
