package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PublicEndpoint is the keyless web translation endpoint.
const PublicEndpoint = "https://translate.googleapis.com/translate_a/single"

// PublicTranslator calls the keyless web endpoint.
type PublicTranslator struct {
	endpoint string
	http     *http.Client
}

// NewPublicTranslator creates a translator for endpoint. An empty endpoint uses PublicEndpoint.
func NewPublicTranslator(endpoint string, timeout time.Duration) *PublicTranslator {
	if endpoint == "" {
		endpoint = PublicEndpoint
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PublicTranslator{endpoint: endpoint, http: &http.Client{Timeout: timeout}}
}

// Name identifies the backend.
func (p *PublicTranslator) Name() string { return "public" }

// Translate implements Translator.
func (p *PublicTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	params := url.Values{
		"client": {"gtx"},
		"sl":     {"auto"},
		"tl":     {target},
		"dt":     {"t"},
		"q":      {text},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("public translate: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("public translate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("public translate: HTTP status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("public translate: %w", err)
	}
	return parsePublicResponse(body)
}

// parsePublicResponse joins the translated segments of a
// [[["translated","source",...],...],...] response.
func parsePublicResponse(body []byte) (string, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil || len(outer) == 0 {
		return "", fmt.Errorf("public translate: unexpected response")
	}
	var segments [][]any
	if err := json.Unmarshal(outer[0], &segments); err != nil {
		return "", fmt.Errorf("public translate: unexpected response")
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			sb.WriteString(s)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
