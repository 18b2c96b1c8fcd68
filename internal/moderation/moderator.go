// Package moderation implements the two-level content check and the
// dispatch loop that turns verdicts into enforcement actions.
package moderation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"raqib/internal/cache"
	"raqib/internal/domain"
	"raqib/internal/lexicon"
	"raqib/internal/metrics"
	"raqib/internal/normalize"
)

const defaultClassifierTimeout = 15 * time.Second

// VerdictCache memoizes classifier verdicts keyed by normalized text.
// Implemented by cache.Verdicts; nil disables caching.
type VerdictCache interface {
	Get(ctx context.Context, normalizedText string) (bool, error)
	Set(ctx context.Context, normalizedText string, flagged bool) error
}

// Moderator runs the check pipeline: normalize, lexicon, cache, remote
// classifier. The lexicon decides first and skips the classifier entirely.
type Moderator struct {
	lexicon    *lexicon.Lexicon
	classifier domain.Classifier
	cache      VerdictCache
	failOpen   bool
	timeout    time.Duration
	logger     *slog.Logger
}

type ModeratorConfig struct {
	Lexicon    *lexicon.Lexicon
	Classifier domain.Classifier
	Cache      VerdictCache // optional
	FailPolicy string       // "open" | "closed"
	Timeout    time.Duration
	Logger     *slog.Logger
}

func NewModerator(cfg ModeratorConfig) *Moderator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultClassifierTimeout
	}
	return &Moderator{
		lexicon:    cfg.Lexicon,
		classifier: cfg.Classifier,
		cache:      cfg.Cache,
		failOpen:   cfg.FailPolicy != "closed",
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}
}

// Check runs one moderation check and returns the verdict. It never returns
// an error: classifier failures resolve through the configured fail policy.
func (m *Moderator) Check(ctx context.Context, msg domain.Message) domain.Verdict {
	start := time.Now()
	verdict := m.check(ctx, msg)
	metrics.CheckDuration.Observe(time.Since(start).Seconds())

	result := verdict.Source
	if !verdict.Flagged && verdict.Source != domain.SourceFailOpen {
		result = "clean"
	}
	metrics.MessagesTotal.WithLabelValues(result).Inc()

	return verdict
}

func (m *Moderator) check(ctx context.Context, msg domain.Message) domain.Verdict {
	normalized := normalize.Normalize(msg.Content)

	if term, ok := m.lexicon.Match(normalized); ok {
		return domain.Verdict{
			Flagged: true,
			Source:  domain.SourceLexicon,
			Term:    term,
			Reason:  "lexicon match",
		}
	}

	if m.cache != nil {
		flagged, err := m.cache.Get(ctx, normalized)
		switch {
		case err == nil:
			return domain.Verdict{Flagged: flagged, Source: domain.SourceCache, Reason: "cached verdict"}
		case !errors.Is(err, cache.ErrMiss):
			m.logger.Warn("verdict cache lookup failed", "err", err)
		}
	}

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	// The classifier sees the original text: evasions the normalizer folds
	// away can still carry signal the model picks up.
	flagged, err := m.classifier.Classify(cctx, msg.Content)
	if err != nil {
		metrics.ClassifierErrors.Inc()
		m.logger.Error("classifier check failed",
			"classifier", m.classifier.Name(),
			"chat_id", msg.ChatID,
			"err", err,
		)
		if m.failOpen {
			return domain.Verdict{Flagged: false, Source: domain.SourceFailOpen, Reason: err.Error()}
		}
		return domain.Verdict{Flagged: true, Source: domain.SourceFailClosed, Reason: err.Error()}
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, normalized, flagged); err != nil {
			m.logger.Warn("verdict cache store failed", "err", err)
		}
	}

	return domain.Verdict{Flagged: flagged, Source: domain.SourceClassifier, Reason: "model verdict"}
}
