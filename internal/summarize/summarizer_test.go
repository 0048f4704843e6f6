package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/repowatch/internal/model"
)

func samplePR() model.PullRequest {
	return model.PullRequest{
		ID:       1,
		Number:   42,
		Title:    "Add tracing middleware",
		HTMLURL:  "https://example.com/pulls/42",
		MergedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Body:     "Adds a middleware that attaches trace ids.",
	}
}

func textResponse(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
		"content": []map[string]string{
			{"type": "text", "text": text},
		},
	}))
}

func TestSummarizePullRequest_ParsesStructuredResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "Add tracing middleware")

		textResponse(t, w, `{
			"overview": "Adds request tracing.",
			"feature_details": "New middleware attaches trace ids.",
			"enabled_outcomes": "Logs can be correlated."
		}`)
	}))
	defer server.Close()

	client := New("secret", "", 0, zap.NewNop(), WithAPIURL(server.URL))
	summary := client.SummarizePullRequest(context.Background(), samplePR())

	assert.Equal(t, "Adds request tracing.", summary.Overview)
	assert.Equal(t, "New middleware attaches trace ids.", summary.FeatureDetails)
	assert.Equal(t, "Logs can be correlated.", summary.EnabledOutcomes)
}

func TestSummarizePullRequest_FallsBackOnAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded"}}`))
	}))
	defer server.Close()

	client := New("secret", "", 0, zap.NewNop(), WithAPIURL(server.URL))
	summary := client.SummarizePullRequest(context.Background(), samplePR())

	assert.Equal(t, FallbackPullRequestSummary, summary)
}

func TestSummarizePullRequest_FallsBackOnMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		textResponse(t, w, "Here is the summary you asked for!")
	}))
	defer server.Close()

	client := New("secret", "", 0, zap.NewNop(), WithAPIURL(server.URL))
	summary := client.SummarizePullRequest(context.Background(), samplePR())

	assert.Equal(t, FallbackPullRequestSummary, summary)
}

func TestSummarizePullRequest_FallsBackOnEmptyFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		textResponse(t, w, `{"overview": "x", "feature_details": "  ", "enabled_outcomes": "y"}`)
	}))
	defer server.Close()

	client := New("secret", "", 0, zap.NewNop(), WithAPIURL(server.URL))
	summary := client.SummarizePullRequest(context.Background(), samplePR())

	assert.Equal(t, FallbackPullRequestSummary, summary)
}

func TestSummarizeRelease_FallsBackWithoutAPIKey(t *testing.T) {
	client := New("", "", 0, zap.NewNop(), WithAPIURL("http://127.0.0.1:0"))
	summary := client.SummarizeRelease(context.Background(), model.Release{
		ID:          7,
		TagName:     "v1.2.0",
		Name:        "Spring cleanup",
		HTMLURL:     "https://example.com/releases/v1.2.0",
		PublishedAt: time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC),
	})

	assert.Equal(t, FallbackReleaseSummary, summary)
}

func TestSummarizeRelease_ParsesStructuredResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[0].Content, "v1.2.0")

		textResponse(t, w, `{
			"overview": "Maintenance release.",
			"feature_details": "Dependency upgrades and bug fixes.",
			"enabled_outcomes": "More stable operation."
		}`)
	}))
	defer server.Close()

	client := New("secret", "", 0, zap.NewNop(), WithAPIURL(server.URL))
	summary := client.SummarizeRelease(context.Background(), model.Release{
		ID:          7,
		TagName:     "v1.2.0",
		Name:        "Spring cleanup",
		HTMLURL:     "https://example.com/releases/v1.2.0",
		PublishedAt: time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC),
	})

	assert.Equal(t, "Maintenance release.", summary.Overview)
}
