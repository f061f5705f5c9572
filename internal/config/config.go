// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads npspy settings from a YAML file and command-line flags.
//
// Flags override the file; the file overrides flag defaults. Keys are
// dot-delimited, so the YAML
//
//	log:
//	  mute: ["npn_mem*"]
//	shutdown_after_last_instance: true
//
// sets log.mute and shutdown_after_last_instance.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/gobwas/glob"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/npspy/internal/format"
	"github.com/holomush/npspy/internal/logging"
	"github.com/holomush/npspy/internal/xdg"
)

// Error codes returned by Load and Validate.
const (
	CodeLoad    = "CONFIG_LOAD"
	CodeInvalid = "INVALID_CONFIG"
)

// Line ending names accepted in log.line_ending.
const (
	LineEndingLF   = "lf"
	LineEndingCRLF = "crlf"
)

// LogConfig selects call log targets and filtering.
type LogConfig struct {
	Console    bool     `koanf:"console"`
	Color      bool     `koanf:"color"`
	File       string   `koanf:"file"`
	Structured bool     `koanf:"structured"`
	LineEnding string   `koanf:"line_ending"`
	Short      bool     `koanf:"short"`
	MuteAll    bool     `koanf:"mute_all"`
	Mute       []string `koanf:"mute"`
}

// Config is the full npspy configuration.
type Config struct {
	Log                       LogConfig `koanf:"log"`
	ShutdownAfterLastInstance bool      `koanf:"shutdown_after_last_instance"`
	PluginsDir                string    `koanf:"plugins_dir"`
	LogFormat                 string    `koanf:"log_format"`
	LogLevel                  string    `koanf:"log_level"`
	MetricsAddr               string    `koanf:"metrics_addr"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"log-console":                  "log.console",
	"log-color":                    "log.color",
	"log-file":                     "log.file",
	"log-structured":               "log.structured",
	"line-ending":                  "log.line_ending",
	"short":                        "log.short",
	"mute-all":                     "log.mute_all",
	"mute":                         "log.mute",
	"shutdown-after-last-instance": "shutdown_after_last_instance",
	"plugins-dir":                  "plugins_dir",
	"log-format":                   "log_format",
	"log-level":                    "log_level",
	"metrics-addr":                 "metrics_addr",
}

// RegisterFlags defines every config flag on fs with its default.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Bool("log-console", true, "write the call log to stdout")
	flags.Bool("log-color", true, "color console records by direction")
	flags.String("log-file", "", "append the call log to this file (empty = disabled)")
	flags.Bool("log-structured", false, "forward call records to the diagnostic logger")
	flags.String("line-ending", LineEndingLF, "call log line ending (lf or crlf)")
	flags.Bool("short", false, "log action names without arguments")
	flags.Bool("mute-all", false, "start with every action muted")
	flags.StringSlice("mute", nil, "glob patterns of action keys to mute, e.g. npn_mem*")
	flags.Bool("shutdown-after-last-instance", false, "shut a plugin down when its last instance is destroyed")
	flags.String("plugins-dir", "", "plugin directory (default: XDG_DATA_HOME/npspy/plugins)")
	flags.String("log-format", logging.FormatText, "diagnostic log format (json or text)")
	flags.String("log-level", "info", "diagnostic log level")
	flags.String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
}

// Load reads path, then overlays the flags in fs. An empty path means the
// XDG default, which may be absent; an explicit path must exist.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		def, err := xdg.ConfigFile()
		if err != nil {
			return nil, oops.Code(CodeLoad).Wrap(err)
		}
		path = def
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code(CodeLoad).
				With("path", path).
				Hint("check the file exists and is valid YAML").
				Wrapf(err, "load config file")
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeLoad).Wrapf(err, "load flags")
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code(CodeLoad).With("path", path).Wrapf(err, "decode config")
	}

	if cfg.PluginsDir == "" {
		dir, err := xdg.PluginsDir()
		if err != nil {
			return nil, oops.Code(CodeLoad).Wrap(err)
		}
		cfg.PluginsDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerations and mute patterns.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.LineEnding) {
	case "", LineEndingLF, LineEndingCRLF:
	default:
		return invalid("log.line_ending", c.Log.LineEnding, "use lf or crlf")
	}
	switch c.LogFormat {
	case "", logging.FormatJSON, logging.FormatText:
	default:
		return invalid("log_format", c.LogFormat, "use json or text")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return invalid("log_level", c.LogLevel, "use debug, info, warn or error")
	}
	for _, pattern := range c.Log.Mute {
		if _, err := glob.Compile(strings.ToLower(pattern)); err != nil {
			return invalid("log.mute", pattern, "use a glob over action keys such as npn_mem*")
		}
	}
	return nil
}

// LineEnding returns the record terminator for log.line_ending.
func (c *Config) LineEnding() string {
	if strings.EqualFold(c.Log.LineEnding, LineEndingCRLF) {
		return format.CRLF
	}
	return format.LF
}

func invalid(key string, value any, hint string) error {
	return oops.Code(CodeInvalid).
		With("key", key).
		With("value", value).
		Hint(hint).
		Errorf("invalid %s: %v", key, value)
}
