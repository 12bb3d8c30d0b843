package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jonwraymond/httpkit/client"
	"github.com/jonwraymond/httpkit/secret"
)

// ErrUnknownConfigKey indicates a key in the config file that maps to nothing.
var ErrUnknownConfigKey = errors.New("cli: unknown config key")

// FileConfig is the on-disk configuration. Only keys present in the file
// override defaults. Header values expand environment references.
//
//	debug = true
//	timeout = "5s"
//	rate_limit = 10.0
//	rate_burst = 2
//
//	[retry]
//	count = 3
//	delay = "500ms"
//
//	[cache]
//	enabled = true
//	max_age = "5m"
//	max_entries = 1000
//
//	[headers]
//	Accept = "application/json"
//	Authorization = "Bearer ${API_TOKEN}"
//
//	[telemetry]
//	service_name = "httpkit"
//	tracing = "stdout"
//	metrics = "prometheus"
type FileConfig struct {
	Debug     bool              `toml:"debug"`
	Timeout   time.Duration     `toml:"timeout"`
	RateLimit float64           `toml:"rate_limit"`
	RateBurst int               `toml:"rate_burst"`
	Headers   map[string]string `toml:"headers"`
	Retry     RetrySection      `toml:"retry"`
	Cache     CacheSection      `toml:"cache"`
	Telemetry TelemetrySection  `toml:"telemetry"`

	md toml.MetaData
}

// RetrySection is the [retry] table.
type RetrySection struct {
	Count int           `toml:"count"`
	Delay time.Duration `toml:"delay"`
}

// CacheSection is the [cache] table.
type CacheSection struct {
	Enabled    bool          `toml:"enabled"`
	MaxAge     time.Duration `toml:"max_age"`
	MaxEntries int           `toml:"max_entries"`
}

// TelemetrySection is the [telemetry] table. Empty exporters disable the
// corresponding signal.
type TelemetrySection struct {
	ServiceName string `toml:"service_name"`
	Tracing     string `toml:"tracing"`
	Metrics     string `toml:"metrics"`
}

// LoadFile reads a TOML config file. Unknown keys are rejected.
func LoadFile(path string) (*FileConfig, error) {
	var fc FileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return finishDecode(&fc, md)
}

// ParseConfig decodes TOML from a string.
func ParseConfig(data string) (*FileConfig, error) {
	var fc FileConfig
	md, err := toml.Decode(data, &fc)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return finishDecode(&fc, md)
}

func finishDecode(fc *FileConfig, md toml.MetaData) (*FileConfig, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownConfigKey, strings.Join(keys, ", "))
	}
	if err := secret.ExpandMap(fc.Headers, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("config headers: %w", err)
	}
	fc.md = md
	return fc, nil
}

// Apply copies every key defined in the file onto cfg.
func (f *FileConfig) Apply(cfg *client.Config) {
	if f.md.IsDefined("debug") {
		cfg.Debug = f.Debug
	}
	if f.md.IsDefined("timeout") {
		cfg.Timeout = f.Timeout
	}
	if f.md.IsDefined("rate_limit") {
		cfg.RateLimit = f.RateLimit
	}
	if f.md.IsDefined("rate_burst") {
		cfg.RateBurst = f.RateBurst
	}
	if f.md.IsDefined("retry", "count") {
		cfg.Retry.Count = f.Retry.Count
	}
	if f.md.IsDefined("retry", "delay") {
		cfg.Retry.Delay = f.Retry.Delay
	}
	if f.md.IsDefined("cache", "enabled") {
		cfg.Cache.Enabled = f.Cache.Enabled
	}
	if f.md.IsDefined("cache", "max_age") {
		cfg.Cache.MaxAge = f.Cache.MaxAge
	}
	if f.md.IsDefined("cache", "max_entries") {
		cfg.Cache.MaxEntries = f.Cache.MaxEntries
	}
	if len(f.Headers) > 0 {
		if cfg.DefaultHeaders == nil {
			cfg.DefaultHeaders = make(http.Header, len(f.Headers))
		}
		for k, v := range f.Headers {
			cfg.DefaultHeaders.Set(k, v)
		}
	}
}
