package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/npa-sniper/internal/config"
)

type stubTranslator struct {
	name  string
	out   string
	err   error
	calls int
}

func (s *stubTranslator) Name() string { return s.name }

func (s *stubTranslator) Translate(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.out, s.err
}

type failureCounter map[string]int

func (f failureCounter) TranslationFailed(backend string) { f[backend]++ }

func TestNoop(t *testing.T) {
	out, err := Noop{}.Translate(context.Background(), "คอนโด", English)
	require.NoError(t, err)
	assert.Equal(t, "คอนโด", out)
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &stubTranslator{name: "a", out: "Condo"}
	second := &stubTranslator{name: "b", out: "unused"}

	out, err := NewChain(nil, first, second).Translate(context.Background(), "คอนโด", English)
	require.NoError(t, err)
	assert.Equal(t, "Condo", out)
	assert.Equal(t, 0, second.calls)
}

func TestChain_FallsThroughFailures(t *testing.T) {
	failing := &stubTranslator{name: "cloud", err: errors.New("quota exceeded")}
	blank := &stubTranslator{name: "gemini", out: "   "}
	working := &stubTranslator{name: "public", out: "Townhouse"}
	failures := failureCounter{}

	chain := NewChain(nil, failing, nil, blank, working).WithRecorder(failures)
	assert.Equal(t, 3, chain.Len())

	out, err := chain.Translate(context.Background(), "ทาวน์เฮ้าส์", English)
	require.NoError(t, err)
	assert.Equal(t, "Townhouse", out)
	assert.Equal(t, failureCounter{"cloud": 1, "gemini": 1}, failures)
}

func TestChain_AllFailReturnsOriginal(t *testing.T) {
	chain := NewChain(nil,
		&stubTranslator{name: "a", err: errors.New("down")},
		&stubTranslator{name: "b", err: errors.New("down")},
	)

	out, err := chain.Translate(context.Background(), "ที่ดินเปล่า", English)
	require.NoError(t, err)
	assert.Equal(t, "ที่ดินเปล่า", out)
}

func TestChain_BlankInputSkipsBackends(t *testing.T) {
	backend := &stubTranslator{name: "a", out: "x"}
	out, err := NewChain(nil, backend).Translate(context.Background(), "  ", English)
	require.NoError(t, err)
	assert.Equal(t, "  ", out)
	assert.Equal(t, 0, backend.calls)
}

func TestFromConfig_SkipTranslation(t *testing.T) {
	built := FromConfig(context.Background(), &config.Config{SkipTranslate: true}, nil, nil)
	defer func() { _ = built.Close() }()
	assert.IsType(t, Noop{}, built.Translator)
}

func TestFromConfig_PublicOnly(t *testing.T) {
	built := FromConfig(context.Background(), &config.Config{}, nil, nil)
	defer func() { _ = built.Close() }()

	chain, ok := built.Translator.(*Chain)
	require.True(t, ok)
	assert.Equal(t, 1, chain.Len())
}

func TestFromConfig_UnreachableCacheIsSkipped(t *testing.T) {
	built := FromConfig(context.Background(), &config.Config{RedisAddress: "127.0.0.1:1"}, nil, nil)
	defer func() { _ = built.Close() }()

	_, ok := built.Translator.(*Chain)
	assert.True(t, ok)
}
