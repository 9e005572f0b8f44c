package compliance

import (
	"regexp"
	"strings"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// Finding is one deterministic scanner hit.
type Finding struct {
	Phrase string
	Hard   bool
}

// Universally prohibited phrases. Any hit forces BLOCKED_HARD regardless of
// the classifier's verdict.
var hardBlockPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)100%\s*guaranteed(\s*results?)?`),
	regexp.MustCompile(`(?i)guaranteed\s*results?`),
	regexp.MustCompile(`(?i)risk[\s-]*free`),
	regexp.MustCompile(`(?i)\bno\s+risk\b`),
	regexp.MustCompile(`(?i)miracle\s+(cure|treatment)`),
	regexp.MustCompile(`(?i)cures?\s+(cancer|diabetes|covid)`),
	regexp.MustCompile(`(?i)get\s+rich\s+quick`),
	regexp.MustCompile(`(?i)(double|triple)\s+your\s+money`),
	regexp.MustCompile(`(?i)100%\s*safe`),
}

// Platform-specific restricted terms. Hits are soft: they raise risk and may
// trigger a rewrite, but do not hard-block on their own. The empty key
// applies to every platform.
var softPatterns = map[string][]*regexp.Regexp{
	"": {
		regexp.MustCompile(`(?i)act\s+now\b`),
		regexp.MustCompile(`(?i)limited\s+time\s+only`),
		regexp.MustCompile(`(?i)\bfree\s+money\b`),
	},
	"meta": {
		regexp.MustCompile(`(?i)before\s+and\s+after`),
		regexp.MustCompile(`(?i)\blose\s+weight\s+fast\b`),
		regexp.MustCompile(`(?i)are\s+you\s+(fat|overweight|broke)`),
	},
	"google": {
		regexp.MustCompile(`(?i)#1\s+(rated|best)`),
		regexp.MustCompile(`(?i)best\s+in\s+the\s+world`),
		regexp.MustCompile(`(?i)click\s+here\b`),
	},
	"tiktok": {
		regexp.MustCompile(`(?i)winners?\s+every\s+day`),
		regexp.MustCompile(`(?i)everyone\s+is\s+buying`),
	},
}

// Rewrite replacements for soft violations. Keys must stay in sync with
// softPatterns; anything not covered is simply removed.
var softRewrites = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)act\s+now\b`), "learn more"},
	{regexp.MustCompile(`(?i)limited\s+time\s+only`), "available now"},
	{regexp.MustCompile(`(?i)before\s+and\s+after`), "customer results"},
	{regexp.MustCompile(`(?i)\blose\s+weight\s+fast\b`), "support your goals"},
	{regexp.MustCompile(`(?i)#1\s+(rated|best)`), "highly rated"},
	{regexp.MustCompile(`(?i)best\s+in\s+the\s+world`), "among the best"},
	{regexp.MustCompile(`(?i)click\s+here\b`), "see details"},
}

// Scanner is the deterministic lexical half of the compliance guard.
type Scanner struct{}

// NewScanner creates a scanner with the built-in phrase lists.
func NewScanner() *Scanner { return &Scanner{} }

// Scan checks the content against the hard-block list and the platform's
// restricted terms, returning every hit.
func (s *Scanner) Scan(content domain.AdContent, platform string) []Finding {
	text := contentText(content)
	var findings []Finding

	for _, re := range hardBlockPatterns {
		if m := re.FindString(text); m != "" {
			findings = append(findings, Finding{Phrase: m, Hard: true})
		}
	}

	for _, key := range []string{"", strings.ToLower(platform)} {
		for _, re := range softPatterns[key] {
			if m := re.FindString(text); m != "" {
				findings = append(findings, Finding{Phrase: m, Hard: false})
			}
		}
	}
	return findings
}

// RewriteSoft applies the rule-based rewrite table to the content, replacing
// or removing soft restricted terms. Hard-block phrases are never rewritten.
func (s *Scanner) RewriteSoft(content domain.AdContent) domain.AdContent {
	rewrite := func(text string) string {
		for _, r := range softRewrites {
			text = r.pattern.ReplaceAllString(text, r.replacement)
		}
		// Drop any remaining soft phrases without replacements.
		for _, patterns := range softPatterns {
			for _, re := range patterns {
				text = re.ReplaceAllString(text, "")
			}
		}
		return strings.Join(strings.Fields(text), " ")
	}
	return domain.AdContent{
		Headline:    rewrite(content.Headline),
		Body:        rewrite(content.Body),
		Description: rewrite(content.Description),
	}
}

func contentText(c domain.AdContent) string {
	return c.Headline + "\n" + c.Body + "\n" + c.Description
}
