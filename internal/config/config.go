// Package config loads application configuration from file, environment,
// and defaults, and wires up the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/review-audit/internal/evaluate"
	"github.com/sells-group/review-audit/internal/feature"
	"github.com/sells-group/review-audit/internal/forest"
	"github.com/sells-group/review-audit/internal/heuristic"
	"github.com/sells-group/review-audit/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     store.Config     `yaml:"store" mapstructure:"store"`
	Heuristic heuristic.Config `yaml:"heuristic" mapstructure:"heuristic"`
	Feature   feature.Config   `yaml:"feature" mapstructure:"feature"`
	Resample  ResampleConfig   `yaml:"resample" mapstructure:"resample"`
	Forest    forest.Config    `yaml:"forest" mapstructure:"forest"`
	Evaluate  evaluate.Config  `yaml:"evaluate" mapstructure:"evaluate"`
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
}

// ResampleConfig configures class rebalancing before training.
type ResampleConfig struct {
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
	Seed     int64  `yaml:"seed" mapstructure:"seed"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REVIEWAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "review-audit.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("heuristic.polarity_threshold", 0.8)
	v.SetDefault("heuristic.subjectivity_min", 0.5)
	v.SetDefault("heuristic.subjectivity_ceiling", 0.8)
	v.SetDefault("heuristic.min_length", 50)
	v.SetDefault("heuristic.repetition_ratio", 0.7)
	v.SetDefault("heuristic.short_praise_word_count", 5)
	v.SetDefault("feature.vocab_size", 1000)
	v.SetDefault("resample.strategy", "oversample")
	v.SetDefault("resample.seed", 1)
	v.SetDefault("forest.trees", 100)
	v.SetDefault("forest.max_depth", 12)
	v.SetDefault("forest.min_leaf", 2)
	v.SetDefault("forest.seed", 1)
	v.SetDefault("evaluate.strategy", "kfold")
	v.SetDefault("evaluate.folds", 5)
	v.SetDefault("evaluate.splits", 5)
	v.SetDefault("evaluate.test_fraction", 0.2)
	v.SetDefault("evaluate.seed", 1)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
