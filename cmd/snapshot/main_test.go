package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/radar-rain-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// radarServer serves a 4×4 PNG of uniform color for every path except
// those listed in missing.
func radarServer(t *testing.T, c color.RGBA, missing ...string) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, m := range missing {
			if r.URL.Path == m {
				http.NotFound(w, r)
				return
			}
		}
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func smallImageEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RADAR_CENTER", "2,2")
	t.Setenv("RADAR_RADIUS", "3")
	t.Setenv("LOG_LEVEL", "error")
}

func TestRun_SingleImage(t *testing.T) {
	smallImageEnv(t)
	srv := radarServer(t, color.RGBA{R: 3, G: 3, B: 3, A: 255})

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-url", srv.URL + "/hty/htyppi15.jpg"}, &stdout, io.Discard)
	require.NoError(t, err)

	assert.Equal(t,
		"Number of pixels with red component lower than 5: 16\n"+
			"Number of pixels with green component lower than 5: 16\n"+
			"Number of pixels with blue component lower than 5: 16\n",
		stdout.String())
}

func TestRun_SingleImageFetchError(t *testing.T) {
	smallImageEnv(t)
	srv := radarServer(t, color.RGBA{A: 255}, "/hty/htyppi15.jpg")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-url", srv.URL + "/hty/htyppi15.jpg"}, &stdout, io.Discard)
	require.Error(t, err)

	assert.Equal(t, domain.KindFetch, domain.ErrorKind(err))
	assert.Empty(t, stdout.String())
}

func TestRun_Batch(t *testing.T) {
	smallImageEnv(t)
	srv := radarServer(t, color.RGBA{R: 3, G: 3, B: 3, A: 255})
	t.Setenv("RADAR_BASE_URL", srv.URL)
	t.Setenv("RADAR_SITES", "ist,ank")
	out := filepath.Join(t.TempDir(), "summary.csv")

	err := run(context.Background(), []string{"-out", out}, io.Discard, io.Discard)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "City,Light Rain,Moderate Rain,Heavy Rain\nIstanbul,16,16,16\nAnkara,16,16,16\n", string(data))
}

func TestRun_BatchWithNoise(t *testing.T) {
	smallImageEnv(t)
	srv := radarServer(t, color.RGBA{R: 3, G: 3, B: 3, A: 255})
	t.Setenv("RADAR_BASE_URL", srv.URL)
	t.Setenv("RADAR_SITES", "ist")
	t.Setenv("NOISE_LIGHT", "10")
	t.Setenv("NOISE_MODERATE", "20")
	t.Setenv("NOISE_HEAVY", "1")
	out := filepath.Join(t.TempDir(), "summary.csv")

	require.NoError(t, run(context.Background(), []string{"-out", out, "-noise"}, io.Discard, io.Discard))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "City,Light Rain,Moderate Rain,Heavy Rain\nIstanbul,6,0,15\n", string(data))
}

func TestRun_BatchAbortsOnFailure(t *testing.T) {
	smallImageEnv(t)
	srv := radarServer(t, color.RGBA{A: 255}, "/ank/ankppi15.jpg")
	t.Setenv("RADAR_BASE_URL", srv.URL)
	t.Setenv("RADAR_SITES", "ist,ank,izm")
	out := filepath.Join(t.TempDir(), "summary.csv")

	err := run(context.Background(), []string{"-out", out}, io.Discard, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ankara")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no partial summary is written")
}

func TestRun_BadFlag(t *testing.T) {
	err := run(context.Background(), []string{"-bogus"}, io.Discard, io.Discard)
	require.Error(t, err)
}
