// Package config resolves paperazzi settings from flags, environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roysti10/paperazzi/internal/httpx"
	"github.com/roysti10/paperazzi/internal/mirror"
	"github.com/roysti10/paperazzi/internal/scholar"
)

// ErrConfig marks invalid combinations of options. It is reported before
// any UI starts.
var ErrConfig = errors.New("configuration error")

const (
	KeyNumResults    = "search.num_results"
	KeyEndpoint      = "search.endpoint"
	KeyAPIKey        = "search.api_key"
	KeySkipMalformed = "search.skip_malformed"
	KeyMirrorHost    = "mirror.host"
	KeyDownloadDir   = "download.dir"
	KeyTimeout       = "http.timeout"
	KeyUserAgent     = "http.user_agent"
	KeyRateLimit     = "http.rate_limit"
	KeyNoAltScreen   = "ui.no_alt_screen"
)

const (
	envPrefix         = "PAPERAZZI"
	configName        = "paperazzi"
	DefaultNumResults = 10
)

// Mode selects between the interactive browser and a one-shot download.
type Mode int

const (
	ModeSearch Mode = iota
	ModeDownload
)

// Settings is the validated runtime configuration.
type Settings struct {
	Mode        Mode
	Query       string
	NumResults  int
	DownloadURL *url.URL

	Endpoint  string
	APIKey    string
	Tolerance scholar.Tolerance

	Mirror      *url.URL
	DownloadDir string
	NoAltScreen bool

	HTTP httpx.Options
}

// Input carries what the command line provided directly.
type Input struct {
	Query         string
	Download      string
	NumResultsSet bool
}

// New returns a viper instance with defaults and environment binding.
// Environment keys replace dots with underscores: PAPERAZZI_MIRROR_HOST.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyNumResults, DefaultNumResults)
	v.SetDefault(KeyEndpoint, scholar.DefaultEndpoint)
	v.SetDefault(KeySkipMalformed, false)
	v.SetDefault(KeyMirrorHost, mirror.DefaultHost)
	v.SetDefault(KeyDownloadDir, ".")
	v.SetDefault(KeyTimeout, httpx.DefaultTimeout)
	v.SetDefault(KeyUserAgent, httpx.DefaultUserAgent)
	v.SetDefault(KeyRateLimit, time.Second)
	v.SetDefault(KeyNoAltScreen, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile loads file when set, otherwise looks for paperazzi.yaml in the
// working directory and ~/.config/paperazzi. A missing default file is not
// an error. It returns the file used, if any.
func ReadFile(v *viper.Viper, file string) (string, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: read config: %v", ErrConfig, err)
	}
	return v.ConfigFileUsed(), nil
}

// Resolve validates in against v and produces Settings.
func Resolve(v *viper.Viper, in Input) (Settings, error) {
	query := strings.TrimSpace(in.Query)
	download := strings.TrimSpace(in.Download)

	switch {
	case query == "" && download == "":
		return Settings{}, fmt.Errorf("%w: either a query or --download must be specified", ErrConfig)
	case query != "" && download != "":
		return Settings{}, fmt.Errorf("%w: a query and --download cannot be used together", ErrConfig)
	case in.NumResultsSet && query == "":
		return Settings{}, fmt.Errorf("%w: --num_results requires a query", ErrConfig)
	}

	s := Settings{
		Query:       query,
		NumResults:  v.GetInt(KeyNumResults),
		Endpoint:    v.GetString(KeyEndpoint),
		APIKey:      v.GetString(KeyAPIKey),
		DownloadDir: v.GetString(KeyDownloadDir),
		NoAltScreen: v.GetBool(KeyNoAltScreen),
		HTTP: httpx.Options{
			Timeout:   v.GetDuration(KeyTimeout),
			UserAgent: v.GetString(KeyUserAgent),
			RateLimit: v.GetDuration(KeyRateLimit),
		},
	}
	if v.GetBool(KeySkipMalformed) {
		s.Tolerance = scholar.SkipMalformed
	}

	if query != "" {
		s.Mode = ModeSearch
		if s.NumResults <= 0 {
			return Settings{}, fmt.Errorf("%w: --num_results must be positive, got %d", ErrConfig, s.NumResults)
		}
	} else {
		s.Mode = ModeDownload
		link, err := url.Parse(download)
		if err != nil || !link.IsAbs() || link.Host == "" {
			return Settings{}, fmt.Errorf("%w: --download %q is not an absolute URL", ErrConfig, download)
		}
		s.DownloadURL = link
	}

	origin, err := mirror.ParseHost(v.GetString(KeyMirrorHost))
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	s.Mirror = origin

	if _, err := url.Parse(s.Endpoint); err != nil || s.Endpoint == "" {
		return Settings{}, fmt.Errorf("%w: invalid search endpoint %q", ErrConfig, s.Endpoint)
	}
	return s, nil
}
