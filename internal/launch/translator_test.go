package launch

import (
	"encoding/json"
	"testing"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

func TestTranslateMetaBudgetInCents(t *testing.T) {
	tr := NewPayloadTranslator()
	intent := domain.CampaignIntent{
		Name:        "Summer Sale",
		Objective:   "conversions",
		DailyBudget: 49.99,
		Content:     domain.AdContent{Headline: "Deals"},
	}

	raw, err := tr.Translate(intent, "meta", "acct-1")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["daily_budget"] != float64(4999) {
		t.Fatalf("daily_budget = %v, want 4999", payload["daily_budget"])
	}
	if payload["objective"] != "OUTCOME_SALES" {
		t.Fatalf("objective = %v", payload["objective"])
	}
	if payload["status"] != "PAUSED" {
		t.Fatal("campaigns must be created paused")
	}
}

func TestTranslateRejectsBadIntent(t *testing.T) {
	tr := NewPayloadTranslator()

	if _, err := tr.Translate(domain.CampaignIntent{Name: "x", DailyBudget: 0}, "meta", "a"); err == nil {
		t.Fatal("zero budget must fail")
	}
	if _, err := tr.Translate(domain.CampaignIntent{DailyBudget: 10}, "meta", "a"); err == nil {
		t.Fatal("missing name must fail")
	}
	if _, err := tr.Translate(domain.CampaignIntent{Name: "x", DailyBudget: 10}, "myspace", "a"); err == nil {
		t.Fatal("unknown platform must fail")
	}
}
