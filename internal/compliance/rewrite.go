package compliance

import (
	"context"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// Creative is one candidate ad variation submitted for launch.
type Creative struct {
	ID      string           `json:"id"`
	Content domain.AdContent `json:"content"`
}

// ExcludedCreative pairs a dropped creative with the verdict that dropped it.
type ExcludedCreative struct {
	Creative Creative                 `json:"creative"`
	Result   *domain.ComplianceResult `json:"result"`
}

// FilterCreatives checks each creative and returns the set that may launch.
// Creatives with soft violations get one rewrite attempt: the guard's
// rule-based rewrite (or the classifier's suggested rewrite, when present)
// is re-checked, and only a passing rewrite survives. Hard-blocked creatives
// are excluded outright, never rewritten.
func (g *Guard) FilterCreatives(ctx context.Context, projectID, platform, locale string, creatives []Creative) (kept []Creative, excluded []ExcludedCreative) {
	for _, cr := range creatives {
		result := g.Check(ctx, projectID, platform, locale, cr.Content)
		if result.Passed {
			kept = append(kept, cr)
			continue
		}
		if result.Status == domain.ComplianceBlockedHard {
			excluded = append(excluded, ExcludedCreative{Creative: cr, Result: result})
			continue
		}

		rewritten := g.scanner.RewriteSoft(cr.Content)
		retry := g.Check(ctx, projectID, platform, locale, rewritten)
		if retry.Passed {
			kept = append(kept, Creative{ID: cr.ID, Content: rewritten})
			continue
		}
		excluded = append(excluded, ExcludedCreative{Creative: cr, Result: retry})
	}
	return kept, excluded
}
