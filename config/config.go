// Package config loads buoytrack configuration from YAML files.
package config

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/LdDl/buoy-go/buoy"
	"github.com/LdDl/buoy-go/detector"
)

type Config struct {
	Tracker  TrackerConfig  `yaml:"tracker"`
	Detector DetectorConfig `yaml:"detector"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type TrackerConfig struct {
	MatchDistance      int `yaml:"match_distance"`
	PromotionThreshold int `yaml:"promotion_threshold"`
	EvictionThreshold  int `yaml:"eviction_threshold"`
	InitialLastSeen    int `yaml:"initial_last_seen"`
	MaxTrackLen        int `yaml:"max_track_len"`
}

type DetectorConfig struct {
	BlurKernel        int     `yaml:"blur_ksize"`
	AdaptiveBlockSize int     `yaml:"adaptive_block_size"`
	AdaptiveC         float32 `yaml:"adaptive_c"`
	MinVertices       int     `yaml:"min_vertices"`
	MinRadius         float64 `yaml:"min_radius"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type MetricsConfig struct {
	// Address to serve /metrics on. Empty disables the endpoint
	Listen string `yaml:"listen"`
}

// Default returns configuration matching package defaults of buoy and detector
func Default() *Config {
	trackerDefaults := buoy.DefaultConfig()
	detectorDefaults := detector.DefaultParams()
	return &Config{
		Tracker: TrackerConfig{
			MatchDistance:      trackerDefaults.MatchDistance,
			PromotionThreshold: trackerDefaults.PromotionThreshold,
			EvictionThreshold:  trackerDefaults.EvictionThreshold,
			InitialLastSeen:    trackerDefaults.InitialLastSeen,
			MaxTrackLen:        trackerDefaults.MaxTrackLen,
		},
		Detector: DetectorConfig{
			BlurKernel:        detectorDefaults.BlurKernel,
			AdaptiveBlockSize: detectorDefaults.AdaptiveBlockSize,
			AdaptiveC:         detectorDefaults.AdaptiveC,
			MinVertices:       detectorDefaults.MinVertices,
			MinRadius:         detectorDefaults.MinRadius,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads YAML file on top of defaults. Empty path gives defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "Can't parse config file %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Invalid config file %s", path)
	}
	return cfg, nil
}

// Validate checks that values are usable
func (cfg *Config) Validate() error {
	if cfg.Tracker.MatchDistance <= 0 {
		return errors.Errorf("tracker.match_distance must be positive, got %d", cfg.Tracker.MatchDistance)
	}
	if cfg.Tracker.PromotionThreshold < 1 {
		return errors.Errorf("tracker.promotion_threshold must be >= 1, got %d", cfg.Tracker.PromotionThreshold)
	}
	// New candidate is aged in its creation frame, so it must outlive that first step
	if cfg.Tracker.InitialLastSeen <= cfg.Tracker.EvictionThreshold {
		return errors.Errorf("tracker.initial_last_seen must be greater than tracker.eviction_threshold, got %d and %d",
			cfg.Tracker.InitialLastSeen, cfg.Tracker.EvictionThreshold)
	}
	if cfg.Tracker.MaxTrackLen < 0 {
		return errors.Errorf("tracker.max_track_len must not be negative, got %d", cfg.Tracker.MaxTrackLen)
	}
	if cfg.Detector.BlurKernel < 1 || cfg.Detector.BlurKernel%2 == 0 {
		return errors.Errorf("detector.blur_ksize must be odd and positive, got %d", cfg.Detector.BlurKernel)
	}
	if cfg.Detector.AdaptiveBlockSize < 3 || cfg.Detector.AdaptiveBlockSize%2 == 0 {
		return errors.Errorf("detector.adaptive_block_size must be odd and >= 3, got %d", cfg.Detector.AdaptiveBlockSize)
	}
	if _, err := zapcore.ParseLevel(cfg.Logging.Level); err != nil {
		return errors.Wrap(err, "logging.level")
	}
	return nil
}

// BuoyConfig converts tracker section to buoy.Config. Protocol increments keep their defaults
func (cfg *Config) BuoyConfig() buoy.Config {
	out := buoy.DefaultConfig()
	out.MatchDistance = cfg.Tracker.MatchDistance
	out.PromotionThreshold = cfg.Tracker.PromotionThreshold
	out.EvictionThreshold = cfg.Tracker.EvictionThreshold
	out.InitialLastSeen = cfg.Tracker.InitialLastSeen
	out.MaxTrackLen = cfg.Tracker.MaxTrackLen
	return out
}

// DetectorParams converts section to detector.Params
func (cfg *Config) DetectorParams() detector.Params {
	out := detector.DefaultParams()
	out.BlurKernel = cfg.Detector.BlurKernel
	out.AdaptiveBlockSize = cfg.Detector.AdaptiveBlockSize
	out.AdaptiveC = cfg.Detector.AdaptiveC
	out.MinVertices = cfg.Detector.MinVertices
	out.MinRadius = cfg.Detector.MinRadius
	return out
}

// NewLogger builds zap logger from logging section
func (cfg LoggingConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrap(err, "Can't parse log level")
	}
	zapCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if cfg.Development {
		zapCfg.Development = true
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "Can't build logger")
	}
	return logger, nil
}
