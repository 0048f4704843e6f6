// Package summarize generates short structured summaries of watched items
// using the Claude Messages API. Summarization is best-effort: any API
// failure degrades to a deterministic fallback summary so an item never
// loses its delivery slot to a flaky summarizer.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/repowatch/internal/model"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	defaultAPIURL    = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// Summary is the structured summary rendered into a notification.
type Summary struct {
	Overview        string `json:"overview"`
	FeatureDetails  string `json:"feature_details"`
	EnabledOutcomes string `json:"enabled_outcomes"`
}

// FallbackPullRequestSummary is substituted when a PR summary cannot be
// generated. Deterministic so delivery stays predictable under API outages.
var FallbackPullRequestSummary = Summary{
	Overview:        "A summary could not be generated for this pull request; see the PR body for details.",
	FeatureDetails:  "The summarization API request failed, so feature details are unavailable.",
	EnabledOutcomes: "Notifications continue; follow the PR link to review the change.",
}

// FallbackReleaseSummary is substituted when a release summary cannot be
// generated.
var FallbackReleaseSummary = Summary{
	Overview:        "A summary could not be generated for this release; see the release notes for details.",
	FeatureDetails:  "The summarization API request failed, so feature details are unavailable.",
	EnabledOutcomes: "Notifications continue; follow the release link to review the changes.",
}

// Summarizer is the contract the pipeline depends on. Implementations must
// not fail: they return a fallback summary instead.
type Summarizer interface {
	SummarizePullRequest(ctx context.Context, pr model.PullRequest) Summary
	SummarizeRelease(ctx context.Context, release model.Release) Summary
}

// Client talks to the Claude Messages API.
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	maxTokens  int
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL overrides the API endpoint; used by tests.
func WithAPIURL(url string) Option {
	return func(c *Client) { c.apiURL = url }
}

// New creates a summarization client. An empty API key is allowed; every
// request then resolves to the fallback summary.
func New(apiKey, modelName string, maxTokens int, log *zap.Logger, opts ...Option) *Client {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	c := &Client{
		apiKey:    apiKey,
		apiURL:    defaultAPIURL,
		model:     modelName,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SummarizePullRequest summarizes one merged PR, falling back to
// FallbackPullRequestSummary on any failure.
func (c *Client) SummarizePullRequest(ctx context.Context, pr model.PullRequest) Summary {
	prompt := buildPullRequestPrompt(pr)
	summary, err := c.requestSummary(
		ctx,
		"You summarize merged GitHub pull requests. Return valid JSON only with keys "+
			"overview, feature_details, enabled_outcomes. Keep each value concise.",
		prompt,
	)
	if err != nil {
		c.log.Warn("falling back to static summary for pull request",
			zap.Int("number", pr.Number),
			zap.Error(err),
		)
		return FallbackPullRequestSummary
	}
	return summary
}

// SummarizeRelease summarizes one release, falling back to
// FallbackReleaseSummary on any failure.
func (c *Client) SummarizeRelease(ctx context.Context, release model.Release) Summary {
	prompt := buildReleasePrompt(release)
	summary, err := c.requestSummary(
		ctx,
		"You summarize GitHub releases. Return valid JSON only with keys "+
			"overview, feature_details, enabled_outcomes. Keep each value concise.",
		prompt,
	)
	if err != nil {
		c.log.Warn("falling back to static summary for release",
			zap.String("tag", release.TagName),
			zap.Error(err),
		)
		return FallbackReleaseSummary
	}
	return summary
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// requestSummary makes a single request to the Claude Messages API and
// parses the JSON summary out of the first text block.
func (c *Client) requestSummary(ctx context.Context, system, prompt string) (Summary, error) {
	if c.apiKey == "" {
		return Summary{}, fmt.Errorf("summarizer API key is not configured")
	}

	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Summary{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apiURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return Summary{}, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Summary{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return Summary{}, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return Summary{}, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Summary{}, fmt.Errorf("decoding response: %w", err)
	}

	var text string
	for _, block := range result.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if strings.TrimSpace(text) == "" {
		return Summary{}, fmt.Errorf("response contains no text content")
	}

	return parseSummary(text)
}

// parseSummary decodes the model's JSON output and validates that every
// field is non-empty text.
func parseSummary(text string) (Summary, error) {
	var summary Summary
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &summary); err != nil {
		return Summary{}, fmt.Errorf("response is not valid JSON: %w", err)
	}

	summary.Overview = strings.TrimSpace(summary.Overview)
	summary.FeatureDetails = strings.TrimSpace(summary.FeatureDetails)
	summary.EnabledOutcomes = strings.TrimSpace(summary.EnabledOutcomes)

	if summary.Overview == "" || summary.FeatureDetails == "" || summary.EnabledOutcomes == "" {
		return Summary{}, fmt.Errorf("summary fields must be non-empty text")
	}
	return summary, nil
}

func buildPullRequestPrompt(pr model.PullRequest) string {
	var sb strings.Builder
	sb.WriteString("Summarize this merged pull request.\n")
	fmt.Fprintf(&sb, "PR number: %d\n", pr.Number)
	fmt.Fprintf(&sb, "Title: %s\n", pr.Title)
	fmt.Fprintf(&sb, "URL: %s", pr.HTMLURL)
	if pr.Body != "" {
		sb.WriteString("\nBody:\n")
		sb.WriteString(pr.Body)
	}
	return sb.String()
}

func buildReleasePrompt(release model.Release) string {
	var sb strings.Builder
	sb.WriteString("Summarize this GitHub release.\n")
	fmt.Fprintf(&sb, "Release tag: %s\n", release.TagName)
	fmt.Fprintf(&sb, "Release name: %s\n", release.Name)
	fmt.Fprintf(&sb, "URL: %s\n", release.HTMLURL)
	fmt.Fprintf(&sb, "Published at: %s", release.PublishedAt.UTC().Format(time.RFC3339))
	if release.Body != "" {
		sb.WriteString("\nBody:\n")
		sb.WriteString(release.Body)
	}
	return sb.String()
}
