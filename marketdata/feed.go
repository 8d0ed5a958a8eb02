package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/meenmo/ratecurve/metrics"
)

// PollResult counts the outcome of one poll.
type PollResult struct {
	Applied   int
	Unchanged int
	Rejected  int
}

// Feed copies values from a Source into a QuoteSink. Setting a changed value
// notifies the quote's observers, which marks dependent curves stale.
type Feed struct {
	source Source
	sink   QuoteSink
	log    *logrus.Entry
}

func NewFeed(source Source, sink QuoteSink, log *logrus.Entry) *Feed {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Feed{source: source, sink: sink, log: log.WithField("component", "feed")}
}

// Poll reads the source once and applies every value. Values the source
// could not parse and ids the sink does not know are rejected and logged;
// they do not fail the poll and the quotes keep their previous values.
func (f *Feed) Poll(ctx context.Context) (PollResult, error) {
	var res PollResult
	quotes, err := f.source.Quotes(ctx)
	var invalid InvalidQuotes
	switch {
	case errors.As(err, &invalid):
		for _, id := range invalid.IDs() {
			res.Rejected++
			f.log.WithError(invalid[id]).WithField("quote", id).Warn("quote rejected")
		}
	case err != nil:
		return res, err
	}

	ids := make([]string, 0, len(quotes))
	for id := range quotes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		changed, err := f.sink.SetQuote(id, quotes[id])
		switch {
		case err != nil:
			res.Rejected++
			f.log.WithError(err).WithField("quote", id).Warn("quote rejected")
		case changed:
			res.Applied++
			f.log.WithFields(logrus.Fields{"quote": id, "value": quotes[id]}).Debug("quote updated")
		default:
			res.Unchanged++
		}
	}
	metrics.RecordQuoteUpdates(metrics.QuoteApplied, res.Applied)
	metrics.RecordQuoteUpdates(metrics.QuoteUnchanged, res.Unchanged)
	metrics.RecordQuoteUpdates(metrics.QuoteRejected, res.Rejected)
	return res, nil
}

// Run polls every interval until ctx is cancelled. onChange runs on the
// polling goroutine after each poll that applied at least one value; its
// error stops the loop. Source errors are logged and the loop continues.
func (f *Feed) Run(ctx context.Context, interval time.Duration, onChange func(PollResult) error) error {
	if interval <= 0 {
		return fmt.Errorf("marketdata: poll interval must be > 0, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := f.Poll(ctx)
		if err != nil {
			f.log.WithError(err).Error("poll failed")
		} else if res.Applied > 0 && onChange != nil {
			if err := onChange(res); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
