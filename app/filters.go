package app

import (
	"time"

	"github.com/artpar/minapi/domain/filter"
	"github.com/artpar/minapi/domain/outcome"
	"github.com/rs/zerolog"
)

// LoggingFilter logs before the rest of the chain runs and logs the outcome
// kind after it returns.
func LoggingFilter(logger zerolog.Logger) filter.Filter {
	logger = logger.With().Str("filter", "logging").Logger()

	return filter.Named("logging", filter.FilterFunc(func(inv *filter.Invocation, next filter.Handler) outcome.Outcome {
		start := time.Now()
		logger.Info().
			Str("method", inv.Method).
			Str("path", inv.Path).
			Str("route", inv.Template).
			Msg("handler starting")

		out := next(inv)

		ev := logger.Info()
		if out.Kind.IsError() {
			ev = logger.Warn()
		}
		ev.Str("method", inv.Method).
			Str("route", inv.Template).
			Str("kind", out.Kind.String()).
			Int("status", out.StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("handler result")
		return out
	}))
}
