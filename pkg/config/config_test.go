package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
environment: test
server:
  port: 8080
  shutdown_timeout: 5s
logging:
  level: info
  format: json
  output: stdout
horizon:
  base_url: https://horizon.example.org
  timeout: 5s
  account_id: GACCOUNT
  signing_seed: abababababababababababababababababababababababababababababababab
pair:
  base:
    native: true
  counter:
    code: USDC
    issuer: GATEST
trading:
  strategy: sma_cross
  poll_interval: 30s
  call_timeout: 10s
  max_retries: 5
  backoff_min: 1s
  backoff_max: 30s
  resolution: 1m
  window_bars: 50
risk:
  risk_percent: 2
  stop_distance: 0.01
  max_daily_loss_percent: 5
submissions:
  path: data/submissions.db
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	c, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Trading.Strategy != "sma_cross" {
		t.Errorf("strategy = %q", c.Trading.Strategy)
	}
	if c.Trading.PollInterval != 30*time.Second {
		t.Errorf("poll interval = %v", c.Trading.PollInterval)
	}
	if !c.Pair.Base.Native || c.Pair.Counter.Code != "USDC" {
		t.Errorf("pair = %+v", c.Pair)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := map[string]func(*Config){
		"missing environment":            func(c *Config) { c.Environment = "" },
		"missing horizon url":            func(c *Config) { c.Horizon.BaseURL = "" },
		"missing signing seed":           func(c *Config) { c.Horizon.SigningSeed = "" },
		"missing strategy":               func(c *Config) { c.Trading.Strategy = "" },
		"call timeout above poll":        func(c *Config) { c.Trading.CallTimeout = time.Minute },
		"zero max retries":               func(c *Config) { c.Trading.MaxRetries = 0 },
		"counter without code":           func(c *Config) { c.Pair.Counter = AssetConfig{} },
		"risk percent above 100":         func(c *Config) { c.Risk.RiskPercent = 150 },
		"classifier enabled no model":    func(c *Config) { c.Classifier.Enabled = true },
		"events enabled without brokers": func(c *Config) { c.Events.Enabled = true },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := Load(writeConfig(t, validYAML))
			if err != nil {
				t.Fatalf("load base: %v", err)
			}
			mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("HORIZON_URL", "https://horizon-testnet.example.org")
	t.Setenv("STRATEGY", "rsi")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Horizon.BaseURL != "https://horizon-testnet.example.org" {
		t.Errorf("base url = %q", c.Horizon.BaseURL)
	}
	if c.Trading.Strategy != "rsi" {
		t.Errorf("strategy = %q", c.Trading.Strategy)
	}
	if len(c.Events.Brokers) != 2 {
		t.Errorf("brokers = %v", c.Events.Brokers)
	}
}
