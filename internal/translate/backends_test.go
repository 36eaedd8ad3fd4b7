package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/jonathan/npa-sniper/internal/llm"
)

func TestPublicTranslator_JoinsSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "gtx", q.Get("client"))
		assert.Equal(t, "auto", q.Get("sl"))
		assert.Equal(t, "en", q.Get("tl"))
		assert.Equal(t, "t", q.Get("dt"))
		assert.Equal(t, "คอนโด ใกล้ BTS", q.Get("q"))
		_, _ = w.Write([]byte(`[[["Condo ","คอนโด ",null,null,1],["near BTS","ใกล้ BTS",null,null,1]],null,"th"]`))
	}))
	defer server.Close()

	out, err := NewPublicTranslator(server.URL, 0).Translate(context.Background(), "คอนโด ใกล้ BTS", English)
	require.NoError(t, err)
	assert.Equal(t, "Condo near BTS", out)
}

func TestPublicTranslator_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "bad" {
			_, _ = w.Write([]byte(`{"unexpected":true}`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewPublicTranslator(server.URL, 0)

	_, err := p.Translate(context.Background(), "ข้อความ", English)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, err = p.Translate(context.Background(), "bad", English)
	assert.Error(t, err)
}

func TestParsePublicResponse(t *testing.T) {
	_, err := parsePublicResponse([]byte(`[[],null]`))
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = parsePublicResponse([]byte(`[]`))
	assert.Error(t, err)

	out, err := parsePublicResponse([]byte(`[[[],["Land",""]]]`))
	require.NoError(t, err)
	assert.Equal(t, "Land", out)
}

func TestCloudTranslator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v3/projects/npa-test/locations/global:translateText"), r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "en", req["targetLanguageCode"])
		assert.Equal(t, "text/plain", req["mimeType"])
		assert.Equal(t, []any{"บ้านเดี่ยว"}, req["contents"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"translations":[{"translatedText":"Detached house"}]}`))
	}))
	defer server.Close()

	ctx := context.Background()
	cloud, err := NewCloudTranslator(ctx, "npa-test",
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	out, err := cloud.Translate(ctx, "บ้านเดี่ยว", English)
	require.NoError(t, err)
	assert.Equal(t, "Detached house", out)
}

func TestCloudTranslator_RequiresProject(t *testing.T) {
	_, err := NewCloudTranslator(context.Background(), "")
	assert.Error(t, err)
}

type fakeLLM struct {
	prompt string
	tier   llm.ModelTier
	out    string
	err    error
}

func (f *fakeLLM) GenerateContent(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.prompt = prompt
	f.tier = tier
	return f.out, f.err
}

func (f *fakeLLM) Close() error { return nil }

func TestGeminiTranslator(t *testing.T) {
	client := &fakeLLM{out: "\"Vacant land, 2 rai\""}

	out, err := NewGeminiTranslator(client).Translate(context.Background(), "ที่ดินเปล่า 2 ไร่", English)
	require.NoError(t, err)
	assert.Equal(t, "Vacant land, 2 rai", out)
	assert.Equal(t, llm.TierLite, client.tier)
	assert.Contains(t, client.prompt, "ที่ดินเปล่า 2 ไร่")
	assert.Contains(t, client.prompt, `"en"`)

	client.err = errors.New("rate limited")
	_, err = NewGeminiTranslator(client).Translate(context.Background(), "x", English)
	assert.Error(t, err)
}
