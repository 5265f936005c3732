package api

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/sodarota/internal/feed"
	"github.com/mmynk/sodarota/internal/i18n"
	"github.com/mmynk/sodarota/internal/models"
)

// FeedEventCount is how many upcoming purchase days the ICS feed lists.
const FeedEventCount = 30

type upcomingSource interface {
	Upcoming(ctx context.Context, n int) ([]models.Assignment, error)
}

// NewFeedHandler serves the upcoming purchase days as an iCalendar feed,
// localized per request.
func NewFeedHandler(source upcomingSource, translator *i18n.Translator, loc *time.Location, now func() time.Time) *feed.Handler {
	if now == nil {
		now = time.Now
	}
	build := func(ctx context.Context, lang string) ([]byte, error) {
		assignments, err := source.Upcoming(ctx, FeedEventCount)
		if err != nil {
			return nil, fmt.Errorf("failed to list upcoming purchase days: %w", err)
		}
		return feed.Generate(now(), assignments, loc, translator.Localizer(lang))
	}
	resolve := func(acceptLanguage string) string {
		return translator.Match(acceptLanguage).String()
	}
	return feed.NewHandler(build, resolve, now)
}
