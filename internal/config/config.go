// Package config loads tool configuration from defaults, an optional YAML
// file and FASTQ2BAM_* environment variables.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. FASTQ2BAM_MD5.
const EnvPrefix = "FASTQ2BAM"

// ResetClasses are the record classes the header-reset tool can exclude.
var ResetClasses = []string{"QCFAIL", "SECONDARY", "SUPPLEMENTARY", "DUP", "UNMAP"}

// Config holds configuration for a fastq2bam run.
type Config struct {
	FastqToBamBin string `mapstructure:"fastqtobam_bin"` // conversion tool executable
	BamResetBin   string `mapstructure:"bamreset_bin"`   // header-reset tool executable
	ResetExclude  string `mapstructure:"reset_exclude"`  // comma-separated ResetClasses, empty passes all records
	MD5           bool   `mapstructure:"md5"`            // write <output>.md5
	TmpDir        string `mapstructure:"tmp_dir"`        // workspace parent (default: output directory)
	LogLevel      string `mapstructure:"log_level"`      // debug, info, warn, error
	LogFormat     string `mapstructure:"log_format"`     // text, json
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FastqToBamBin: "fastqtobam",
		BamResetBin:   "bamreset",
		ResetExclude:  "QCFAIL,SECONDARY,SUPPLEMENTARY",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply.
func Load(path string) (Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("fastqtobam_bin", def.FastqToBamBin)
	v.SetDefault("bamreset_bin", def.BamResetBin)
	v.SetDefault("reset_exclude", def.ResetExclude)
	v.SetDefault("md5", def.MD5)
	v.SetDefault("tmp_dir", def.TmpDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if _, err := cfg.ExcludeList(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ExcludeList parses ResetExclude, normalizing case and dropping blanks.
func (c Config) ExcludeList() ([]string, error) {
	var classes []string
	for _, part := range strings.Split(c.ResetExclude, ",") {
		class := strings.ToUpper(strings.TrimSpace(part))
		if class == "" {
			continue
		}
		if !slices.Contains(ResetClasses, class) {
			return nil, fmt.Errorf("reset_exclude: unknown record class %q (want one of %s)", part, strings.Join(ResetClasses, ", "))
		}
		if !slices.Contains(classes, class) {
			classes = append(classes, class)
		}
	}
	return classes, nil
}
