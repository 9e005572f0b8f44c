package launch

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// Translator maps the platform-agnostic campaign intent into a
// platform-native campaign payload.
type Translator interface {
	Translate(intent domain.CampaignIntent, platform, accountID string) (json.RawMessage, error)
}

// PayloadTranslator builds creation payloads for the supported ad platforms.
// Every payload is created paused; activation is a separate, human step.
type PayloadTranslator struct{}

func NewPayloadTranslator() *PayloadTranslator { return &PayloadTranslator{} }

func (t *PayloadTranslator) Translate(intent domain.CampaignIntent, platform, accountID string) (json.RawMessage, error) {
	if intent.Name == "" {
		return nil, fmt.Errorf("campaign name is required")
	}
	if intent.DailyBudget <= 0 {
		return nil, fmt.Errorf("daily budget must be positive, got %.2f", intent.DailyBudget)
	}

	var payload any
	switch strings.ToLower(platform) {
	case "meta":
		payload = map[string]any{
			"account_id":   accountID,
			"name":         intent.Name,
			"objective":    metaObjective(intent.Objective),
			"status":       "PAUSED",
			"daily_budget": int64(math.Round(intent.DailyBudget * 100)),
			"creative": map[string]string{
				"title":       intent.Content.Headline,
				"body":        intent.Content.Body,
				"description": intent.Content.Description,
				"link_url":    intent.LandingURL,
			},
		}
	case "google":
		payload = map[string]any{
			"customer_id":              accountID,
			"campaign_name":            intent.Name,
			"advertising_channel_type": "SEARCH",
			"status":                   "PAUSED",
			"budget_micros":            int64(math.Round(intent.DailyBudget * 1e6)),
			"responsive_search_ad": map[string]any{
				"headlines":    []string{intent.Content.Headline},
				"descriptions": []string{intent.Content.Description},
				"final_url":    intent.LandingURL,
			},
		}
	case "tiktok":
		payload = map[string]any{
			"advertiser_id":  accountID,
			"campaign_name":  intent.Name,
			"objective_type": tiktokObjective(intent.Objective),
			"operation_status": "DISABLE",
			"budget_mode":    "BUDGET_MODE_DAY",
			"budget":         intent.DailyBudget,
			"ad_text":        intent.Content.Body,
			"landing_page_url": intent.LandingURL,
		}
	default:
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", platform, err)
	}
	return raw, nil
}

func metaObjective(objective string) string {
	switch strings.ToLower(objective) {
	case "conversions", "purchases":
		return "OUTCOME_SALES"
	case "traffic":
		return "OUTCOME_TRAFFIC"
	case "leads":
		return "OUTCOME_LEADS"
	default:
		return "OUTCOME_AWARENESS"
	}
}

func tiktokObjective(objective string) string {
	switch strings.ToLower(objective) {
	case "conversions", "purchases":
		return "CONVERSIONS"
	case "traffic":
		return "TRAFFIC"
	case "leads":
		return "LEAD_GENERATION"
	default:
		return "REACH"
	}
}
