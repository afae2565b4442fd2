package main

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"
	"github.com/spf13/pflag"

	"pkg.jsn.cam/ipgen/internal/budget"
)

const (
	defaultLogLevel = "info"

	flagConfig   = "config"
	flagFile     = "file"
	flagKB       = "max-size-kb"
	flagMB       = "max-size-mb"
	flagGB       = "max-size-gb"
	flagSeed     = "seed"
	flagProgress = "progress"
	flagLogLevel = "log-level"
)

// config is the optional TOML file; flags take precedence over it.
type config struct {
	File      string  `toml:"file"`
	MaxSizeKB *int64  `toml:"max_size_kb"`
	MaxSizeMB *int64  `toml:"max_size_mb"`
	MaxSizeGB *int64  `toml:"max_size_gb"`
	Seed      *uint64 `toml:"seed"`
	Progress  bool    `toml:"progress"`
	LogLevel  string  `toml:"log_level"`
}

func readConfig(filename string) (config, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return config{}, errors.Wrapf(err, "config file %s", filename)
	}
	if info.IsDir() {
		return config{}, errors.Errorf("config file %s is a directory", filename)
	}

	var cfg config
	if _, err := toml.DecodeFile(filename, &cfg); err != nil {
		return config{}, errors.Wrapf(err, "decode %s", filename)
	}
	return cfg, nil
}

func (c config) sizeRequest() budget.Request {
	return budget.Request{
		KB: c.MaxSizeKB,
		MB: c.MaxSizeMB,
		GB: c.MaxSizeGB,
	}
}

// validate checks the merged config and returns the byte budget.
func (c config) validate() (int64, error) {
	if c.File == "" {
		return 0, &budget.ConfigError{Err: budget.ErrNoFile}
	}
	return budget.Resolve(c.sizeRequest())
}

func (c *config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// flags holds raw flag values before they are merged into a config.
type flags struct {
	config   string
	file     string
	kb       int64
	mb       int64
	gb       int64
	seed     uint64
	progress bool
	logLevel string
}

func (f *flags) register(set, persistent *pflag.FlagSet) {
	set.StringVar(&f.config, flagConfig, "", "path to an optional TOML config file")
	set.StringVarP(&f.file, flagFile, "f", "", "name of the generated file")
	set.Int64Var(&f.kb, flagKB, 0, "maximum size of the generated file in KB")
	set.Int64Var(&f.mb, flagMB, 0, "maximum size of the generated file in MB")
	set.Int64Var(&f.gb, flagGB, 0, "maximum size of the generated file in GB")
	set.Uint64Var(&f.seed, flagSeed, 0, "random seed for reproducible output (default: random)")
	set.BoolVar(&f.progress, flagProgress, false, "show a progress bar on stderr")
	persistent.StringVar(&f.logLevel, flagLogLevel, defaultLogLevel, "log level (debug, info, warn, error)")
}

// apply overrides cfg with every flag set on the command line.
//
// Size units are replaced as a group: any size flag drops all size keys
// from the config file.
func (f *flags) apply(set *pflag.FlagSet, cfg config) config {
	if set.Changed(flagFile) {
		cfg.File = f.file
	}
	if set.Changed(flagKB) || set.Changed(flagMB) || set.Changed(flagGB) {
		cfg.MaxSizeKB, cfg.MaxSizeMB, cfg.MaxSizeGB = nil, nil, nil
		if set.Changed(flagKB) {
			cfg.MaxSizeKB = &f.kb
		}
		if set.Changed(flagMB) {
			cfg.MaxSizeMB = &f.mb
		}
		if set.Changed(flagGB) {
			cfg.MaxSizeGB = &f.gb
		}
	}
	if set.Changed(flagSeed) {
		cfg.Seed = &f.seed
	}
	if set.Changed(flagProgress) {
		cfg.Progress = f.progress
	}
	if set.Changed(flagLogLevel) {
		cfg.LogLevel = f.logLevel
	}
	return cfg
}
