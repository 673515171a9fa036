package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelicContextKey is the context key under which the New Relic application
// is stashed for event and metric recording.
type NewRelicContextKey struct{}

// WithApplication stashes the New Relic application on the context.
func WithApplication(ctx context.Context, app *newrelic.Application) context.Context {
	return context.WithValue(ctx, NewRelicContextKey{}, app)
}

// RecordEvent records a new event with a name and set of key-value pairs
func RecordEvent(ctx context.Context, eventName string, kvPairs map[string]interface{}) {
	nr, ok := ctx.Value(NewRelicContextKey{}).(*newrelic.Application)
	if ok {
		nr.RecordCustomEvent(eventName, kvPairs)
	}
}
