package crud

import (
	"fmt"
	"os"

	honeybadger "github.com/honeybadger-io/honeybadger-go"
)

// Reporter forwards errors that were recovered locally to an external tracker.
type Reporter func(err error, fields map[string]any)

// HoneybadgerReporter returns a Reporter backed by Honeybadger, or nil when
// HONEYBADGER_API_KEY is not set.
func HoneybadgerReporter() Reporter {
	apiKey := os.Getenv("HONEYBADGER_API_KEY")
	if apiKey == "" {
		return nil
	}
	honeybadger.Configure(honeybadger.Configuration{
		APIKey: apiKey,
		Env:    os.Getenv("GO_ENV"),
	})
	return func(err error, fields map[string]any) {
		ctx := honeybadger.Context{}
		for k, v := range fields {
			ctx[k] = fmt.Sprint(v)
		}
		_, _ = honeybadger.Notify(err, ctx, honeybadger.Tags{"reconciliation"})
	}
}
