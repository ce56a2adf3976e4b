// Package telemetry wires the Temporal worker's metrics into a Prometheus
// scrape endpoint.
package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/uber-go/tally/v4"
	"github.com/uber-go/tally/v4/prometheus"
	sdktally "go.temporal.io/sdk/contrib/tally"
)

// NewPrometheusScope creates a tally scope backed by a Prometheus HTTP
// reporter listening on listenAddr. Close the returned closer on shutdown to
// flush the final snapshot.
func NewPrometheusScope(listenAddr string) (tally.Scope, io.Closer, error) {
	cfg := prometheus.Configuration{
		ListenAddress: listenAddr,
		TimerType:     "histogram",
	}
	reporter, err := cfg.NewReporter(prometheus.ConfigurationOptions{
		Registry: prom.NewRegistry(),
		OnError: func(err error) {
			slog.Error("prometheus reporter error", "error", err)
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus reporter: %w", err)
	}

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		CachedReporter:  reporter,
		Separator:       prometheus.DefaultSeparator,
		SanitizeOptions: &sdktally.PrometheusSanitizeOptions,
		Prefix:          "couponclip",
	}, time.Second)

	return sdktally.NewPrometheusNamingScope(scope), closer, nil
}
