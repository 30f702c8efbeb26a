package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/kitbot/core/config"
	"github.com/m3rciful/kitbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares returns recover, logger, rate_limit and metrics in
// that order. The logger runs before the limiter so limited updates carry a
// rid, and metrics sits innermost so the logger sees its counters.
// rate_limit is omitted when the interval is zero.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited func(tele.Context) error) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
	if limit := rateLimitOptions(cfg, onLimited); limit != nil {
		mws = append(mws, Middleware{Name: "rate_limit", Use: middleware.RateLimitMiddleware(*limit)})
	}
	return append(mws, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
}

func rateLimitOptions(cfg *coreconfig.Config, onLimited func(tele.Context) error) *middleware.RateLimitOptions {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return nil
	}
	exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		exclude[kind] = struct{}{}
	}
	return &middleware.RateLimitOptions{
		Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		Exclude:   exclude,
		OnLimited: onLimited,
	}
}
