package compliance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ignite/campaign-sentinel/internal/config"
	"github.com/ignite/campaign-sentinel/internal/domain"
)

type stubClassifier struct {
	verdict *Verdict
	err     error
	calls   int
}

func (s *stubClassifier) Classify(ctx context.Context, content domain.AdContent, platform, locale string) (*Verdict, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.verdict, nil
}

type captureAudit struct {
	records []*domain.ComplianceResult
}

func (c *captureAudit) RecordVerdict(ctx context.Context, projectID, platform string, content domain.AdContent, result *domain.ComplianceResult) error {
	c.records = append(c.records, result)
	return nil
}

func testComplianceConfig() config.ComplianceConfig {
	return config.ComplianceConfig{
		RiskWeightCritical:       100,
		RiskWeightHigh:           20,
		RiskWeightMedium:         10,
		RiskWeightLow:            5,
		ClassifierTimeoutSeconds: 1,
		FallbackRiskScore:        99,
		PromptVersion:            "v1",
	}
}

func TestCheckApproved(t *testing.T) {
	cls := &stubClassifier{verdict: &Verdict{Status: domain.ComplianceApproved, ModelID: "test-model"}}
	g := NewGuard(cls, testComplianceConfig(), nil)

	res := g.Check(context.Background(), "proj-1", "meta", "en-US", domain.AdContent{
		Headline: "Comfortable running shoes",
		Body:     "Lightweight design for daily training.",
	})

	if !res.Passed || res.Status != domain.ComplianceApproved {
		t.Fatalf("status=%s passed=%v", res.Status, res.Passed)
	}
	if res.RiskScore != 0 {
		t.Fatalf("risk = %d, want 0", res.RiskScore)
	}
}

func TestHardBlockOverridesApproval(t *testing.T) {
	// The classifier approves, but the deterministic scan must win.
	cls := &stubClassifier{verdict: &Verdict{Status: domain.ComplianceApproved, ModelID: "test-model"}}
	audit := &captureAudit{}
	g := NewGuard(cls, testComplianceConfig(), audit)

	res := g.Check(context.Background(), "proj-1", "meta", "en-US", domain.AdContent{
		Headline: "100% Guaranteed Results or your money back",
	})

	if res.Status != domain.ComplianceBlockedHard {
		t.Fatalf("status = %s, want BLOCKED_HARD", res.Status)
	}
	if res.Passed {
		t.Fatal("hard-blocked content must not pass")
	}
	if res.RiskScore != 100 {
		t.Fatalf("risk = %d, want 100", res.RiskScore)
	}
	if len(audit.records) != 1 {
		t.Fatalf("audit records = %d, want 1", len(audit.records))
	}
	found := false
	for _, line := range res.Trace {
		if strings.Contains(line, "hard-block override") {
			found = true
		}
	}
	if !found {
		t.Fatal("trace must record the hard-block override")
	}
}

func TestHardBlockWithFailingClassifier(t *testing.T) {
	// Both layers degraded or firing: classifier down, hard phrase present.
	// The hard block must still dominate.
	cls := &stubClassifier{err: errors.New("throttled")}
	g := NewGuard(cls, testComplianceConfig(), nil)

	res := g.Check(context.Background(), "proj-1", "google", "en-US", domain.AdContent{
		Body: "Guaranteed results in two weeks.",
	})

	if res.Status != domain.ComplianceBlockedHard {
		t.Fatalf("status = %s, want BLOCKED_HARD", res.Status)
	}
	if res.RiskScore != 100 {
		t.Fatalf("risk = %d, want 100", res.RiskScore)
	}
}

func TestClassifierFallback(t *testing.T) {
	cls := &stubClassifier{err: errors.New("timeout")}
	g := NewGuard(cls, testComplianceConfig(), nil)

	res := g.Check(context.Background(), "proj-1", "meta", "en-US", domain.AdContent{
		Headline: "Comfortable running shoes",
	})

	if res.Status != domain.ComplianceBlockedSoft {
		t.Fatalf("status = %s, want BLOCKED_SOFT", res.Status)
	}
	if res.Passed {
		t.Fatal("fallback verdict must not pass")
	}
	if res.RiskScore != 99 {
		t.Fatalf("risk = %d, want fallback 99", res.RiskScore)
	}
}

func TestNilClassifierFailsClosed(t *testing.T) {
	g := NewGuard(nil, testComplianceConfig(), nil)

	res := g.Check(context.Background(), "proj-1", "meta", "en-US", domain.AdContent{
		Headline: "Plain content",
	})
	if res.Passed {
		t.Fatal("no classifier means no approval")
	}
}

func TestSoftTermRaisesRisk(t *testing.T) {
	cls := &stubClassifier{verdict: &Verdict{Status: domain.ComplianceApproved, ModelID: "test-model"}}
	g := NewGuard(cls, testComplianceConfig(), nil)

	res := g.Check(context.Background(), "proj-1", "meta", "en-US", domain.AdContent{
		Body: "See the before and after photos.",
	})

	if !res.Passed {
		t.Fatal("soft terms alone do not block")
	}
	if res.RiskScore != 10 {
		t.Fatalf("risk = %d, want 10", res.RiskScore)
	}
}

func TestRiskScoreCapped(t *testing.T) {
	g := NewGuard(nil, testComplianceConfig(), nil)
	issues := []domain.ComplianceIssue{
		{Severity: domain.SeverityCritical},
		{Severity: domain.SeverityCritical},
		{Severity: domain.SeverityHigh},
	}
	if got := g.riskScore(issues); got != 100 {
		t.Fatalf("risk = %d, want capped 100", got)
	}
}

func TestFilterCreativesRewritesSoftViolations(t *testing.T) {
	cls := &stubClassifier{verdict: &Verdict{Status: domain.ComplianceApproved, ModelID: "test-model"}}
	g := NewGuard(cls, testComplianceConfig(), nil)

	creatives := []Creative{
		{ID: "clean", Content: domain.AdContent{Headline: "Daily training shoes"}},
		{ID: "hard", Content: domain.AdContent{Headline: "Risk-free trial, guaranteed results"}},
	}

	kept, excluded := g.FilterCreatives(context.Background(), "proj-1", "meta", "en-US", creatives)

	if len(kept) != 1 || kept[0].ID != "clean" {
		t.Fatalf("kept = %+v", kept)
	}
	if len(excluded) != 1 || excluded[0].Creative.ID != "hard" {
		t.Fatalf("excluded = %+v", excluded)
	}
	if excluded[0].Result.Status != domain.ComplianceBlockedHard {
		t.Fatalf("excluded status = %s", excluded[0].Result.Status)
	}
}

func TestRewriteSoftStripsRestrictedTerms(t *testing.T) {
	s := NewScanner()
	content := domain.AdContent{
		Headline: "Act now for the best deal",
		Body:     "Limited time only, before and after photos inside.",
	}
	rewritten := s.RewriteSoft(content)

	for _, f := range s.Scan(rewritten, "meta") {
		if !f.Hard {
			t.Fatalf("rewrite left soft term %q", f.Phrase)
		}
	}
}

func TestScanDetectsPlatformTerms(t *testing.T) {
	s := NewScanner()

	// A Meta-restricted term is not flagged on TikTok.
	content := domain.AdContent{Body: "before and after shots"}
	if got := s.Scan(content, "tiktok"); len(got) != 0 {
		t.Fatalf("tiktok scan = %+v", got)
	}
	if got := s.Scan(content, "meta"); len(got) != 1 || got[0].Hard {
		t.Fatalf("meta scan = %+v", got)
	}
}
