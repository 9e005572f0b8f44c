// Package compliance gates ad content before launch. Every piece of content
// passes through two layers: an external model classifier and a deterministic
// phrase scanner. The scanner has the last word; a hard-block hit overrides
// any classifier approval, and classifier failure degrades to a restrictive
// verdict instead of letting content through unchecked.
package compliance

import (
	"context"
	"fmt"
	"log"

	"github.com/ignite/campaign-sentinel/internal/config"
	"github.com/ignite/campaign-sentinel/internal/domain"
)

// AuditSink persists non-passing verdicts for review.
type AuditSink interface {
	RecordVerdict(ctx context.Context, projectID, platform string, content domain.AdContent, result *domain.ComplianceResult) error
}

// Guard is the compliance decision point. It is safe for concurrent use.
type Guard struct {
	classifier Classifier
	scanner    *Scanner
	cfg        config.ComplianceConfig
	audit      AuditSink
}

// NewGuard wires a guard. classifier may be nil, in which case every check
// takes the restrictive fallback path; audit may be nil to skip persistence.
func NewGuard(classifier Classifier, cfg config.ComplianceConfig, audit AuditSink) *Guard {
	return &Guard{
		classifier: classifier,
		scanner:    NewScanner(),
		cfg:        cfg,
		audit:      audit,
	}
}

// Check runs the full compliance pipeline for one piece of content:
// classifier (with timeout and restrictive fallback), deterministic scan,
// hard-block override, then a risk score recomputed from the final issue
// list. The result carries a trace of which checks fired.
func (g *Guard) Check(ctx context.Context, projectID, platform, locale string, content domain.AdContent) *domain.ComplianceResult {
	result := &domain.ComplianceResult{}
	fallback := false

	verdict := g.classify(ctx, content, platform, locale)
	if verdict == nil {
		fallback = true
		result.Status = domain.ComplianceBlockedSoft
		result.Issues = append(result.Issues, domain.ComplianceIssue{
			Severity: domain.SeverityHigh,
			Message:  "policy classifier unavailable, content held for review",
		})
		result.Trace = append(result.Trace, "classifier unavailable: fallback verdict BLOCKED_SOFT")
	} else {
		result.Status = verdict.Status
		result.Issues = append(result.Issues, verdict.Issues...)
		result.Trace = append(result.Trace,
			fmt.Sprintf("classifier verdict %s (model=%s prompt=%s)", verdict.Status, verdict.ModelID, g.cfg.PromptVersion))
	}

	for _, f := range g.scanner.Scan(content, platform) {
		if f.Hard {
			result.Issues = append(result.Issues, domain.ComplianceIssue{
				Severity: domain.SeverityCritical,
				Message:  fmt.Sprintf("prohibited claim: %q", f.Phrase),
			})
			if result.Status != domain.ComplianceBlockedHard {
				result.Status = domain.ComplianceBlockedHard
				result.Trace = append(result.Trace, fmt.Sprintf("hard-block override: %q", f.Phrase))
			}
		} else {
			result.Issues = append(result.Issues, domain.ComplianceIssue{
				Severity: domain.SeverityMedium,
				Message:  fmt.Sprintf("restricted term for %s: %q", platform, f.Phrase),
			})
		}
	}

	result.RiskScore = g.riskScore(result.Issues)
	if fallback && result.RiskScore < g.cfg.FallbackRiskScore {
		result.RiskScore = g.cfg.FallbackRiskScore
	}
	result.Trace = append(result.Trace, fmt.Sprintf("risk recomputed from %d issues", len(result.Issues)))

	result.Passed = result.Status == domain.ComplianceApproved ||
		result.Status == domain.ComplianceApprovedWithChanges

	if !result.Passed && g.audit != nil {
		if err := g.audit.RecordVerdict(ctx, projectID, platform, content, result); err != nil {
			log.Printf("[ComplianceGuard] Failed to persist verdict: %v", err)
		}
	}

	return result
}

// classify calls the external classifier under the configured timeout.
// Any failure, including timeout, returns nil so the caller falls back to
// the restrictive verdict.
func (g *Guard) classify(ctx context.Context, content domain.AdContent, platform, locale string) *Verdict {
	if g.classifier == nil {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, g.cfg.ClassifierTimeout())
	defer cancel()

	verdict, err := g.classifier.Classify(cctx, content, platform, locale)
	if err != nil {
		log.Printf("[ComplianceGuard] Classifier failed: %v", err)
		return nil
	}
	return verdict
}

// riskScore sums severity weights over the issue list, capped at 100.
func (g *Guard) riskScore(issues []domain.ComplianceIssue) int {
	score := 0
	for _, iss := range issues {
		switch iss.Severity {
		case domain.SeverityCritical:
			score += g.cfg.RiskWeightCritical
		case domain.SeverityHigh:
			score += g.cfg.RiskWeightHigh
		case domain.SeverityMedium:
			score += g.cfg.RiskWeightMedium
		case domain.SeverityLow:
			score += g.cfg.RiskWeightLow
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}
