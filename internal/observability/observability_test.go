package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "json")

	logger.Debug("round complete", "site", "Ankara")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "round complete", entry["msg"])
	assert.Equal(t, "Ankara", entry["site"])
}

func TestNewLogger_TextAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "text")

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestUnregisteredMetrics(t *testing.T) {
	m := NewUnregisteredMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.SiteErrors, m.RainPixels)

	m.SiteErrors.WithLabelValues("fetch").Inc()
	m.RainPixels.WithLabelValues("Ankara", "Light Rain").Set(42)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				values[f.GetName()] = c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				values[f.GetName()] = g.GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, values["radar_etl_site_errors_total"])
	assert.Equal(t, 42.0, values["radar_etl_rain_pixels"])
}
