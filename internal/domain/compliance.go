package domain

// ComplianceStatus is the verdict of a compliance check.
type ComplianceStatus string

const (
	ComplianceApproved            ComplianceStatus = "APPROVED"
	ComplianceApprovedWithChanges ComplianceStatus = "APPROVED_WITH_CHANGES"
	ComplianceBlockedSoft         ComplianceStatus = "BLOCKED_SOFT"
	ComplianceBlockedHard         ComplianceStatus = "BLOCKED_HARD"
)

// IssueSeverity weights a compliance issue when the deterministic risk score
// is recomputed from the final issue list.
type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "CRITICAL"
	SeverityHigh     IssueSeverity = "HIGH"
	SeverityMedium   IssueSeverity = "MEDIUM"
	SeverityLow      IssueSeverity = "LOW"
)

// ComplianceIssue is one finding from the scanner or the classifier.
type ComplianceIssue struct {
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// ComplianceResult is the final verdict for a piece of ad content. RiskScore
// is always recomputed deterministically from Issues; the external
// classifier's own score is never trusted. Trace documents which checks
// fired and why, for audit.
type ComplianceResult struct {
	Status    ComplianceStatus  `json:"status"`
	Passed    bool              `json:"passed"`
	Issues    []ComplianceIssue `json:"issues"`
	RiskScore int               `json:"risk_score"`
	Trace     []string          `json:"trace"`
}
