package intent

import (
	_ "embed"
	"strings"

	"github.com/spigell/lead-scorer/internal/model"
)

//go:embed prompt.md
var promptTemplate string

// BuildPrompt renders the classification prompt for a lead and offer.
func BuildPrompt(lead model.Lead, offer model.Offer) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Lead: {{LEAD_NAME}}, {{LEAD_ROLE}} at {{LEAD_COMPANY}} ({{LEAD_INDUSTRY}})\n" +
			"Offer: {{OFFER_NAME}} for {{OFFER_USE_CASES}}\n" +
			"Classify this lead's buying intent as High, Medium, or Low."
	}

	replacer := strings.NewReplacer(
		"{{LEAD_NAME}}", lead.Name,
		"{{LEAD_ROLE}}", lead.Role,
		"{{LEAD_COMPANY}}", lead.Company,
		"{{LEAD_INDUSTRY}}", lead.Industry,
		"{{LEAD_LOCATION}}", lead.Location,
		"{{LEAD_BIO}}", lead.LinkedInBio,
		"{{OFFER_NAME}}", offer.Name,
		"{{OFFER_VALUE_PROPS}}", strings.Join(offer.ValueProps, ", "),
		"{{OFFER_USE_CASES}}", strings.Join(offer.IdealUseCases, ", "),
	)

	return replacer.Replace(template)
}
