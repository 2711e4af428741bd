package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roysti10/paperazzi/internal/scholar"
)

func TestResolveModes(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		want    Mode
		wantErr bool
	}{
		{"query only", Input{Query: "transformer"}, ModeSearch, false},
		{"query with count", Input{Query: "transformer", NumResultsSet: true}, ModeSearch, false},
		{"download only", Input{Download: "https://doi.org/10.1000/xyz"}, ModeDownload, false},
		{"neither", Input{}, 0, true},
		{"blank query", Input{Query: "   "}, 0, true},
		{"both", Input{Query: "x", Download: "https://doi.org/10.1000/xyz"}, 0, true},
		{"count without query", Input{Download: "https://doi.org/10.1000/xyz", NumResultsSet: true}, 0, true},
		{"relative download", Input{Download: "10.1000/xyz"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Resolve(New(), tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Mode)
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	s, err := Resolve(New(), Input{Query: "transformer"})
	require.NoError(t, err)
	assert.Equal(t, DefaultNumResults, s.NumResults)
	assert.Equal(t, scholar.DefaultEndpoint, s.Endpoint)
	assert.Equal(t, scholar.FailFast, s.Tolerance)
	assert.Equal(t, "https://sci-hub.wf/", s.Mirror.String())
	assert.Equal(t, time.Second, s.HTTP.RateLimit)
	assert.Equal(t, ".", s.DownloadDir)
}

func TestResolveRejectsNonPositiveCount(t *testing.T) {
	v := New()
	v.Set(KeyNumResults, 0)
	_, err := Resolve(v, Input{Query: "x", NumResultsSet: true})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PAPERAZZI_MIRROR_HOST", "http://127.0.0.1:9999")
	t.Setenv("PAPERAZZI_SEARCH_SKIP_MALFORMED", "true")
	t.Setenv("PAPERAZZI_SEARCH_ENDPOINT", "http://127.0.0.1:9998/search")

	s, err := Resolve(New(), Input{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999/", s.Mirror.String())
	assert.Equal(t, scholar.SkipMalformed, s.Tolerance)
	assert.Equal(t, "http://127.0.0.1:9998/search", s.Endpoint)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	contents := "search:\n  num_results: 3\n  api_key: abc\nmirror:\n  host: mirror.example\nhttp:\n  timeout: 5s\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	v := New()
	used, err := ReadFile(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	s, err := Resolve(v, Input{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, 3, s.NumResults)
	assert.Equal(t, "abc", s.APIKey)
	assert.Equal(t, "https://mirror.example/", s.Mirror.String())
	assert.Equal(t, 5*time.Second, s.HTTP.Timeout)
}

func TestReadFileMissingExplicitFile(t *testing.T) {
	_, err := ReadFile(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfig)
}
