package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RfpIntel/internal/config"
	"RfpIntel/internal/domain"
)

func newTestClient(url string) *ChatGPTClient {
	return NewChatGPTClient(config.ChatGPTConfig{
		Endpoint:    url,
		Model:       "gpt-test",
		APIKey:      "sk-test",
		Temperature: 0.3,
	}, nil)
}

func TestCompleteSummaryProfile(t *testing.T) {
	t.Parallel()

	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"first"}},{"message":{"content":"second"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Complete(context.Background(), domain.ProfileSummary, "RFP body text")
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, 200, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, `"dueDate"`)
	assert.Contains(t, got.Messages[1].Content, "RFP body text")
}

func TestCompleteQuestionUsesOwnTemperature(t *testing.T) {
	t.Parallel()

	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"<p>May 1</p>"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Complete(context.Background(), domain.ProfileQuestion, "text\n\nQuestion: due?")
	require.NoError(t, err)
	assert.Equal(t, "<p>May 1</p>", out)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Zero(t, got.MaxTokens)
	assert.Equal(t, "PDF Content: text\n\nQuestion: due?", got.Messages[1].Content)
}

func TestCompleteErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/empty") {
			_, _ = w.Write([]byte(`{"choices":[]}`))
			return
		}
		http.Error(w, strings.Repeat("x", 4096), http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), domain.ProfileCoverSheet, "doc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Less(t, len(err.Error()), 1200)

	_, err = newTestClient(srv.URL+"/empty").Complete(context.Background(), domain.ProfileCoverSheet, "doc")
	assert.ErrorContains(t, err, "no choices")

	_, err = newTestClient(srv.URL).Complete(context.Background(), domain.Profile("poem"), "doc")
	assert.ErrorContains(t, err, "unknown completion profile")

	_, err = NewChatGPTClient(config.ChatGPTConfig{}, nil).Complete(context.Background(), domain.ProfileSummary, "doc")
	assert.ErrorContains(t, err, "misconfigured")
}

func TestCoverSheetPromptListsSectionsInOrder(t *testing.T) {
	t.Parallel()

	prompt := coverSheetSystemPrompt()
	last := -1
	for _, section := range coverSheetSections {
		idx := strings.Index(prompt, "Section: "+section.name)
		require.Greater(t, idx, last, section.name)
		last = idx
	}
	assert.Contains(t, prompt, `"RFP number & title": ""`)
	for _, p := range []domain.Profile{domain.ProfileCoverSheet, domain.ProfileSummary, domain.ProfileComplianceMatrix, domain.ProfileFeasibility, domain.ProfileQuestion} {
		_, err := lookupProfile(p)
		assert.NoError(t, err, p)
	}
}
