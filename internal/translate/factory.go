package translate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/npa-sniper/internal/config"
	"github.com/jonathan/npa-sniper/internal/llm"
	"github.com/jonathan/npa-sniper/internal/logging"
)

// Built is a configured translator plus the resources it holds.
type Built struct {
	Translator Translator
	closers    []func() error
}

// Close releases the clients opened by FromConfig.
func (b *Built) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// FromConfig assembles the translation chain the configuration asks for.
// Backends that cannot be created are logged and left out of the chain.
func FromConfig(ctx context.Context, cfg *config.Config, recorder Recorder, logger logging.Logger) *Built {
	if logger == nil {
		logger = logging.NewNop()
	}
	built := &Built{}
	if cfg.SkipTranslate {
		logger.Info("translation disabled")
		built.Translator = Noop{}
		return built
	}

	var backends []Translator
	if cfg.GoogleCloudProject != "" {
		cloud, err := NewCloudTranslator(ctx, cfg.GoogleCloudProject)
		if err != nil {
			logger.Warn("cloud translation unavailable", logging.Error(err))
		} else {
			backends = append(backends, cloud)
		}
	}
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("gemini translation unavailable", logging.Error(err))
		} else {
			backends = append(backends, NewGeminiTranslator(client))
			built.closers = append(built.closers, client.Close)
		}
	}
	backends = append(backends, NewPublicTranslator("", 5*time.Second))

	chain := NewChain(logger, backends...)
	if recorder != nil {
		chain.WithRecorder(recorder)
	}
	built.Translator = chain

	cached := false
	if cfg.RedisAddress != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("translation cache unavailable", logging.String("address", cfg.RedisAddress), logging.Error(err))
			_ = client.Close()
		} else {
			built.Translator = NewCached(chain, client, cfg.TranslationCacheTTL, logger)
			built.closers = append(built.closers, client.Close)
			cached = true
		}
	}

	logger.Info("translation chain ready", logging.Int("backends", chain.Len()), logging.Bool("cached", cached))
	return built
}
