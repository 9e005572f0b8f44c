package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// Verdict is the raw classifier output before the guard applies the
// deterministic scan and risk recompute.
type Verdict struct {
	Status  domain.ComplianceStatus
	Issues  []domain.ComplianceIssue
	Rewrite *domain.AdContent
	ModelID string
}

// Classifier judges ad content against platform policy. Implementations may
// call out to an external model; the guard owns the timeout and the fallback.
type Classifier interface {
	Classify(ctx context.Context, content domain.AdContent, platform, locale string) (*Verdict, error)
}

// BedrockClassifier runs content policy classification on AWS Bedrock
// (Claude). All data stays within AWS.
type BedrockClassifier struct {
	client        *bedrockruntime.Client
	modelID       string
	promptVersion string
	region        string
}

// bedrockMessage is a message in Bedrock's Anthropic format.
type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// classifierVerdict is the JSON shape the model is instructed to return.
type classifierVerdict struct {
	Status  string `json:"status"`
	Issues  []struct {
		Severity string `json:"severity"`
		Message  string `json:"message"`
	} `json:"issues"`
	Rewrite *struct {
		Headline    string `json:"headline"`
		Body        string `json:"body"`
		Description string `json:"description"`
	} `json:"rewrite"`
}

// NewBedrockClassifier creates a classifier backed by AWS Bedrock.
func NewBedrockClassifier(ctx context.Context, modelID, promptVersion, region string) (*BedrockClassifier, error) {
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if modelID == "" {
		modelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}

	bc := &BedrockClassifier{
		client:        bedrockruntime.NewFromConfig(cfg),
		modelID:       modelID,
		promptVersion: promptVersion,
		region:        region,
	}

	log.Printf("BedrockClassifier: Initialized with model=%s, region=%s", modelID, region)
	return bc, nil
}

const classifierSystemPrompt = `You are an ad policy compliance reviewer for paid social and search platforms (Meta, Google, TikTok).

Review the submitted ad content against the target platform's advertising policies and respond with ONLY a JSON object, no prose:

{
  "status": "APPROVED" | "APPROVED_WITH_CHANGES" | "BLOCKED_SOFT" | "BLOCKED_HARD",
  "issues": [{"severity": "CRITICAL" | "HIGH" | "MEDIUM" | "LOW", "message": "..."}],
  "rewrite": {"headline": "...", "body": "...", "description": "..."}
}

Rules:
- APPROVED: no policy concerns.
- APPROVED_WITH_CHANGES: minor concerns; include a compliant rewrite.
- BLOCKED_SOFT: the content as written would likely be rejected but is fixable.
- BLOCKED_HARD: the content makes claims that cannot be made compliant.
- "rewrite" is only present for APPROVED_WITH_CHANGES or BLOCKED_SOFT.
- Issue messages must describe the policy concern, not quote thresholds.`

// Classify sends the content to Bedrock and parses the structured verdict.
func (c *BedrockClassifier) Classify(ctx context.Context, content domain.AdContent, platform, locale string) (*Verdict, error) {
	userMessage := fmt.Sprintf(`Platform: %s
Locale: %s
Prompt-Version: %s

Headline: %s
Body: %s
Description: %s`,
		platform, locale, c.promptVersion,
		content.Headline, content.Body, content.Description)

	request := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        1024,
		System:           classifierSystemPrompt,
		Messages: []bedrockMessage{
			{
				Role: "user",
				Content: []bedrockContentBlock{
					{Type: "text", Text: userMessage},
				},
			},
		},
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return nil, fmt.Errorf("Bedrock API error: %w", err)
	}

	var response bedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var responseText string
	for _, block := range response.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	verdict, err := parseVerdict(responseText)
	if err != nil {
		return nil, err
	}
	verdict.ModelID = c.modelID

	log.Printf("BedrockClassifier: Classified content for %s (in: %d tokens, out: %d tokens)",
		platform, response.Usage.InputTokens, response.Usage.OutputTokens)

	return verdict, nil
}

// GetModelID returns the Bedrock model being used.
func (c *BedrockClassifier) GetModelID() string {
	return c.modelID
}

// parseVerdict extracts the JSON verdict from the model's response text. The
// model is instructed to return bare JSON, but we tolerate surrounding prose.
func parseVerdict(text string) (*Verdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON verdict in classifier response")
	}

	var raw classifierVerdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse classifier verdict: %w", err)
	}

	status := domain.ComplianceStatus(raw.Status)
	switch status {
	case domain.ComplianceApproved, domain.ComplianceApprovedWithChanges,
		domain.ComplianceBlockedSoft, domain.ComplianceBlockedHard:
	default:
		return nil, fmt.Errorf("classifier returned unknown status %q", raw.Status)
	}

	v := &Verdict{Status: status}
	for _, iss := range raw.Issues {
		sev := domain.IssueSeverity(iss.Severity)
		switch sev {
		case domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow:
		default:
			sev = domain.SeverityMedium
		}
		v.Issues = append(v.Issues, domain.ComplianceIssue{Severity: sev, Message: iss.Message})
	}
	if raw.Rewrite != nil {
		v.Rewrite = &domain.AdContent{
			Headline:    raw.Rewrite.Headline,
			Body:        raw.Rewrite.Body,
			Description: raw.Rewrite.Description,
		}
	}
	return v, nil
}
