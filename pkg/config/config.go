package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type AssetConfig struct {
	Code   string `yaml:"code"`
	Issuer string `yaml:"issuer"`
	Native bool   `yaml:"native"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Horizon struct {
		BaseURL      string        `yaml:"base_url"`
		Timeout      time.Duration `yaml:"timeout"`
		AccountID    string        `yaml:"account_id"`
		SigningSeed  string        `yaml:"signing_seed"`
		RateCapacity float64       `yaml:"rate_capacity"`
		RateRefill   float64       `yaml:"rate_refill"`
	} `yaml:"horizon"`
	Pair struct {
		Base    AssetConfig `yaml:"base"`
		Counter AssetConfig `yaml:"counter"`
	} `yaml:"pair"`
	Trading struct {
		Strategy     string             `yaml:"strategy"`
		Params       map[string]float64 `yaml:"params"`
		PollInterval time.Duration      `yaml:"poll_interval"`
		CallTimeout  time.Duration      `yaml:"call_timeout"`
		MaxRetries   int                `yaml:"max_retries"`
		BackoffMin   time.Duration      `yaml:"backoff_min"`
		BackoffMax   time.Duration      `yaml:"backoff_max"`
		Resolution   time.Duration      `yaml:"resolution"`
		WindowBars   int                `yaml:"window_bars"`
	} `yaml:"trading"`
	Risk struct {
		RiskPercent         float64 `yaml:"risk_percent"`
		StopDistance        float64 `yaml:"stop_distance"`
		MaxDailyLossPercent float64 `yaml:"max_daily_loss_percent"`
	} `yaml:"risk"`
	Classifier struct {
		Enabled    bool    `yaml:"enabled"`
		ModelPath  string  `yaml:"model_path"`
		WindowBars int     `yaml:"window_bars"`
		Threshold  float64 `yaml:"threshold"`
	} `yaml:"classifier"`
	Journal struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port"`
		Database    string        `yaml:"database"`
		User        string        `yaml:"user"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
	} `yaml:"journal"`
	Events struct {
		Enabled     bool     `yaml:"enabled"`
		Brokers     []string `yaml:"brokers"`
		Topic       string   `yaml:"topic"`
		Compression string   `yaml:"compression"`
		MaxAttempts int      `yaml:"max_attempts"`
	} `yaml:"events"`
	Cache struct {
		Enabled  bool          `yaml:"enabled"`
		Backend  string        `yaml:"backend"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Submissions struct {
		Path string `yaml:"path"`
	} `yaml:"submissions"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("HORIZON_URL"); v != "" {
		c.Horizon.BaseURL = v
	}
	if v := os.Getenv("ACCOUNT_ID"); v != "" {
		c.Horizon.AccountID = v
	}
	if v := os.Getenv("SIGNING_SEED"); v != "" {
		c.Horizon.SigningSeed = v
	}
	if v := os.Getenv("STRATEGY"); v != "" {
		c.Trading.Strategy = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Horizon.BaseURL == "" {
		return fmt.Errorf("horizon.base_url is required")
	}
	if c.Horizon.AccountID == "" {
		return fmt.Errorf("horizon.account_id is required")
	}
	if c.Horizon.SigningSeed == "" {
		return fmt.Errorf("horizon.signing_seed is required")
	}
	if c.Trading.Strategy == "" {
		return fmt.Errorf("trading.strategy is required")
	}
	if c.Trading.PollInterval <= 0 {
		return fmt.Errorf("trading.poll_interval must be positive")
	}
	if c.Trading.CallTimeout <= 0 || c.Trading.CallTimeout >= c.Trading.PollInterval {
		return fmt.Errorf("trading.call_timeout must be positive and below trading.poll_interval")
	}
	if c.Trading.MaxRetries <= 0 {
		return fmt.Errorf("trading.max_retries must be positive")
	}
	if c.Trading.WindowBars <= 0 {
		return fmt.Errorf("trading.window_bars must be positive")
	}
	if c.Trading.Resolution <= 0 {
		return fmt.Errorf("trading.resolution must be positive")
	}
	if !c.Pair.Base.Native && c.Pair.Base.Code == "" {
		return fmt.Errorf("pair.base must be native or carry a code")
	}
	if !c.Pair.Counter.Native && c.Pair.Counter.Code == "" {
		return fmt.Errorf("pair.counter must be native or carry a code")
	}
	if c.Risk.RiskPercent <= 0 || c.Risk.RiskPercent > 100 {
		return fmt.Errorf("risk.risk_percent must be in (0, 100]")
	}
	if c.Risk.StopDistance <= 0 {
		return fmt.Errorf("risk.stop_distance must be positive")
	}
	if c.Classifier.Enabled && c.Classifier.ModelPath == "" {
		return fmt.Errorf("classifier.model_path is required when classifier is enabled")
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers cannot be empty when events are enabled")
	}
	if c.Journal.Enabled && c.Journal.Host == "" {
		return fmt.Errorf("journal.host is required when journal is enabled")
	}
	return nil
}
