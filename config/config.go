package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Service struct {
	URL     string `yaml:"url" mapstructure:"url"`
	Timeout int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}
type Services struct {
	Classifier Service `yaml:"classifier" mapstructure:"classifier"`
}
type Signal struct {
	TargetFs  float64    `yaml:"target_fs" mapstructure:"target_fs"`
	SigLen    int        `yaml:"siglen" mapstructure:"siglen"`
	Slice     string     `yaml:"slice" mapstructure:"slice"`
	Bandpass  [2]float64 `yaml:"bandpass" mapstructure:"bandpass"`
	FiltOrder int        `yaml:"filter_order" mapstructure:"filter_order"`
}
type RPeaks struct {
	RefractoryMs float64 `yaml:"refractory_ms" mapstructure:"refractory_ms"`
	ThresholdK   float64 `yaml:"threshold_k" mapstructure:"threshold_k"`
	ToleranceMs  float64 `yaml:"tolerance_ms" mapstructure:"tolerance_ms"`
}
type Merger struct {
	Threshold          float64 `yaml:"threshold" mapstructure:"threshold"`
	LookAgainTolerance float64 `yaml:"look_again_tolerance" mapstructure:"look_again_tolerance"`
	NSRThreshold       float64 `yaml:"nsr_threshold" mapstructure:"nsr_threshold"`
}
type Database struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Host     string `yaml:"host" mapstructure:"host"`
	Port     string `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
}
type Sink struct {
	Kind    string   `yaml:"kind" mapstructure:"kind"` // none | nats | kafka | mqtt
	URL     string   `yaml:"url" mapstructure:"url"`
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
}
type HTTP struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	Mode string `yaml:"mode" mapstructure:"mode"`
}
type Root struct {
	Pipeline struct {
		Name      string `yaml:"name" mapstructure:"name"`
		Version   string `yaml:"version" mapstructure:"version"`
		LogLvl    string `yaml:"log_level" mapstructure:"log_level"`
		LogFormat string `yaml:"log_format" mapstructure:"log_format"`
	} `yaml:"pipeline" mapstructure:"pipeline"`
	Signal     Signal     `yaml:"signal" mapstructure:"signal"`
	RPeaks     RPeaks     `yaml:"rpeaks" mapstructure:"rpeaks"`
	Thresholds Thresholds `yaml:"thresholds" mapstructure:"thresholds"`
	Merger     Merger     `yaml:"merger" mapstructure:"merger"`
	Services   Services   `yaml:"services" mapstructure:"services"`
	Database   Database   `yaml:"database" mapstructure:"database"`
	Sink       Sink       `yaml:"sink" mapstructure:"sink"`
	HTTP       HTTP       `yaml:"http" mapstructure:"http"`
	Paths      struct {
		Data    string `yaml:"data" mapstructure:"data"`
		Outputs string `yaml:"outputs" mapstructure:"outputs"`
	} `yaml:"paths" mapstructure:"paths"`
}

// Default returns a configuration that runs without any file present.
func Default() *Root {
	var cfg Root
	cfg.Pipeline.Name = "ecg-pipeline"
	cfg.Pipeline.Version = "dev"
	cfg.Pipeline.LogLvl = "info"
	cfg.Pipeline.LogFormat = "text"
	cfg.Signal = Signal{TargetFs: 500, Slice: "center", Bandpass: [2]float64{0.5, 45}, FiltOrder: 3}
	cfg.RPeaks = RPeaks{RefractoryMs: 200, ThresholdK: 0.35, ToleranceMs: 50}
	cfg.Thresholds = DefaultThresholds()
	cfg.Merger = Merger{Threshold: 0.5, LookAgainTolerance: 0.03, NSRThreshold: 0.1}
	cfg.Services.Classifier.Timeout = 60
	cfg.Sink.Kind = "none"
	cfg.Sink.Topic = "ecg.diagnoses"
	cfg.HTTP = HTTP{Addr: ":8080", Mode: "release"}
	cfg.Paths.Outputs = "outputs"
	return &cfg
}

// Load reads the first config file found (explicit path, then
// config/<CONFIG_ENV>/config.yaml, then src/shared/config.yaml) on top of
// Default. A missing file is not an error; a malformed one is.
func Load(path string) (*Root, error) {
	cfg := Default()
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	var guess []string
	if path != "" {
		guess = []string{path}
	} else {
		guess = []string{
			filepath.Join("config", env, "config.yaml"),
			filepath.Join("src", "shared", "config.yaml"),
		}
	}
	for _, p := range guess {
		f, err := os.Open(p)
		if err != nil {
			if path != "" {
				return nil, fmt.Errorf("config %s: %w", p, err)
			}
			continue
		}
		err = yaml.NewDecoder(f).Decode(cfg)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("config %s decode: %w", p, err)
		}
		break
	}
	return cfg, cfg.Validate()
}

// Overlay applies ECG_-prefixed environment variables and any values set
// on v (typically bound cobra flags) to cfg. Every key of Root can be
// overridden, e.g. ECG_THRESHOLDS_RATE_TACHY_THRESHOLD_MS.
func Overlay(cfg *Root, v *viper.Viper) error {
	v.SetEnvPrefix("ECG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	base, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config encode: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.MergeConfig(bytes.NewReader(base)); err != nil {
		return fmt.Errorf("config merge: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config overlay: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the sections a run cannot proceed without.
func (r *Root) Validate() error {
	if !(r.Signal.TargetFs > 0) {
		return fmt.Errorf("signal.target_fs must be positive, got %v", r.Signal.TargetFs)
	}
	if r.Signal.SigLen < 0 {
		return fmt.Errorf("signal.siglen must not be negative, got %d", r.Signal.SigLen)
	}
	if r.Merger.Threshold < 0 || r.Merger.Threshold > 1 {
		return fmt.Errorf("merger.threshold %v outside [0, 1]", r.Merger.Threshold)
	}
	switch r.Sink.Kind {
	case "", "none", "nats", "kafka", "mqtt":
	default:
		return fmt.Errorf("unknown sink kind %q", r.Sink.Kind)
	}
	return r.Thresholds.Validate()
}

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }
