package main

import (
	"time"

	"github.com/tinytelemetry/killfeed/internal/dispatch"
	"github.com/tinytelemetry/killfeed/internal/model"
)

const (
	defaultBindHost       = "127.0.0.1"
	defaultAPIPort        = 3000
	defaultEndpointURL    = "http://localhost:8080"
	defaultVerifyPath     = dispatch.DefaultVerifyPath
	defaultSendPath       = dispatch.DefaultSendPath
	defaultRequestTimeout = dispatch.DefaultTimeout
	defaultPollInterval   = model.DefaultPollInterval
	defaultHealthInterval = model.DefaultHealthInterval
	defaultProcessName    = model.DefaultProcessName
	defaultJournalSize    = model.DefaultJournalSize
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	APIEnabled       bool          `mapstructure:"api-enabled"`
	APIPort          int           `mapstructure:"api-port"`
	APIAddr          string        `mapstructure:"api-addr"`
	SocketPath       string        `mapstructure:"socket-path"`
	EndpointURL      string        `mapstructure:"endpoint-url"`
	VerifyPath       string        `mapstructure:"verify-path"`
	SendPath         string        `mapstructure:"send-path"`
	RequestTimeout   time.Duration `mapstructure:"request-timeout"`
	PollInterval     time.Duration `mapstructure:"poll-interval"`
	HealthInterval   time.Duration `mapstructure:"health-interval"`
	ProcessName      string        `mapstructure:"process-name"`
	SkipProcessCheck bool          `mapstructure:"skip-process-check"`
	JournalSize      int           `mapstructure:"journal-size"`
	JournalPath      string        `mapstructure:"journal-path"`
	SettingsPath     string        `mapstructure:"settings-path"`
	AutoStart        bool          `mapstructure:"auto-start"`
	ConfigPath       string        `mapstructure:"-"` // not from config file
}
