package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the engine. Every policy knob lives
// here as an explicit field; nothing reads ambient globals at runtime.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Automation AutomationConfig `yaml:"automation"`
	Compliance ComplianceConfig `yaml:"compliance"`
	Launch     LaunchConfig     `yaml:"launch"`
	Bedrock    BedrockConfig    `yaml:"bedrock"`
	Actuators  ActuatorConfig   `yaml:"actuators"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds Redis settings for the ledger and distributed locks.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// AuthToken maps a bearer token to the project it is scoped to.
type AuthToken struct {
	Token     string `yaml:"token"`
	ProjectID string `yaml:"project_id"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	Enabled bool        `yaml:"enabled"`
	Tokens  []AuthToken `yaml:"tokens"`
}

// AutomationConfig holds the safety knobs for the rules engine.
type AutomationConfig struct {
	// KillSwitch disables all automated actions globally when true.
	KillSwitch bool `yaml:"kill_switch"`
	// DailyCampaignLimit caps automated actions per campaign per day.
	DailyCampaignLimit int `yaml:"daily_campaign_limit"`
	// DailyGlobalLimit caps automated actions per project per day.
	DailyGlobalLimit int `yaml:"daily_global_limit"`
	// Data floor: a campaign needs either this many minutes since first
	// spend or this many impressions before automation may touch it.
	DataFloorMinutes     int   `yaml:"data_floor_minutes"`
	DataFloorImpressions int64 `yaml:"data_floor_impressions"`
	// InefficiencyMultiplier is the cross-campaign CPA threshold: a campaign
	// matches the inefficiency rule when CPA > multiplier * best CPA.
	InefficiencyMultiplier float64 `yaml:"inefficiency_multiplier"`
	// DefaultCooldownMinutes applies when a rule has no cooldown of its own.
	DefaultCooldownMinutes int `yaml:"default_cooldown_minutes"`
	// CooldownMinutesByAction overrides the cooldown per action type.
	CooldownMinutesByAction map[string]int `yaml:"cooldown_minutes_by_action"`
	LockTTLSeconds          int            `yaml:"lock_ttl_seconds"`
	DebounceSeconds         int            `yaml:"debounce_seconds"`
}

// LockTTL returns the distributed lock TTL as a duration.
func (c AutomationConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// DebounceWindow returns the in-process debounce window as a duration.
func (c AutomationConfig) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceSeconds) * time.Second
}

// CooldownFor returns the cooldown for an action type, falling back to the
// default when no per-action override is configured.
func (c AutomationConfig) CooldownFor(actionType string) time.Duration {
	if m, ok := c.CooldownMinutesByAction[actionType]; ok && m > 0 {
		return time.Duration(m) * time.Minute
	}
	return time.Duration(c.DefaultCooldownMinutes) * time.Minute
}

// ComplianceConfig holds compliance guard policy.
type ComplianceConfig struct {
	// Risk weights per issue severity; the final score is their sum capped
	// at 100. The classifier's own score is never used.
	RiskWeightCritical int `yaml:"risk_weight_critical"`
	RiskWeightHigh     int `yaml:"risk_weight_high"`
	RiskWeightMedium   int `yaml:"risk_weight_medium"`
	RiskWeightLow      int `yaml:"risk_weight_low"`
	// ClassifierTimeoutSeconds bounds every external classifier call.
	ClassifierTimeoutSeconds int `yaml:"classifier_timeout_seconds"`
	// FallbackRiskScore is recorded when the classifier fails and the guard
	// falls back to BLOCKED_SOFT.
	FallbackRiskScore int    `yaml:"fallback_risk_score"`
	PromptVersion     string `yaml:"prompt_version"`
}

// ClassifierTimeout returns the classifier timeout as a duration.
func (c ComplianceConfig) ClassifierTimeout() time.Duration {
	return time.Duration(c.ClassifierTimeoutSeconds) * time.Second
}

// LaunchConfig holds launch orchestrator policy.
type LaunchConfig struct {
	// RiskThreshold: requests with a risk score above this launch in soft
	// mode at best.
	RiskThreshold int `yaml:"risk_threshold"`
}

// ActuatorConfig maps platforms to the actuator endpoints that apply
// committed automation actions (pause, budget change, creative rotation).
type ActuatorConfig struct {
	// Endpoints keys are platform names (meta, google, tiktok); values are
	// base URLs. A committed action for an unmapped platform fails dispatch.
	Endpoints      map[string]string `yaml:"endpoints"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	MaxRetries     int               `yaml:"max_retries"`
}

// Timeout returns the per-dispatch HTTP timeout as a duration.
func (c ActuatorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BedrockConfig holds AWS Bedrock settings for the external classifier.
type BedrockConfig struct {
	Enabled bool   `yaml:"enabled"`
	ModelID string `yaml:"model_id"`
	Region  string `yaml:"region"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Automation.DailyCampaignLimit == 0 {
		cfg.Automation.DailyCampaignLimit = 3
	}
	if cfg.Automation.DailyGlobalLimit == 0 {
		cfg.Automation.DailyGlobalLimit = 50
	}
	if cfg.Automation.DataFloorMinutes == 0 {
		cfg.Automation.DataFloorMinutes = 60
	}
	if cfg.Automation.DataFloorImpressions == 0 {
		cfg.Automation.DataFloorImpressions = 1000
	}
	if cfg.Automation.InefficiencyMultiplier == 0 {
		cfg.Automation.InefficiencyMultiplier = 1.5
	}
	if cfg.Automation.DefaultCooldownMinutes == 0 {
		cfg.Automation.DefaultCooldownMinutes = 120
	}
	if cfg.Automation.LockTTLSeconds == 0 {
		cfg.Automation.LockTTLSeconds = 30
	}
	if cfg.Automation.DebounceSeconds == 0 {
		cfg.Automation.DebounceSeconds = 2
	}
	if cfg.Compliance.RiskWeightCritical == 0 {
		cfg.Compliance.RiskWeightCritical = 100
	}
	if cfg.Compliance.RiskWeightHigh == 0 {
		cfg.Compliance.RiskWeightHigh = 20
	}
	if cfg.Compliance.RiskWeightMedium == 0 {
		cfg.Compliance.RiskWeightMedium = 10
	}
	if cfg.Compliance.RiskWeightLow == 0 {
		cfg.Compliance.RiskWeightLow = 5
	}
	if cfg.Compliance.ClassifierTimeoutSeconds == 0 {
		cfg.Compliance.ClassifierTimeoutSeconds = 15
	}
	if cfg.Compliance.FallbackRiskScore == 0 {
		cfg.Compliance.FallbackRiskScore = 99
	}
	if cfg.Compliance.PromptVersion == "" {
		cfg.Compliance.PromptVersion = "v1"
	}
	if cfg.Launch.RiskThreshold == 0 {
		cfg.Launch.RiskThreshold = 80
	}
	if cfg.Actuators.TimeoutSeconds == 0 {
		cfg.Actuators.TimeoutSeconds = 10
	}
	if cfg.Actuators.MaxRetries == 0 {
		cfg.Actuators.MaxRetries = 3
	}
	if cfg.Bedrock.ModelID == "" {
		cfg.Bedrock.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.Bedrock.Region == "" {
		cfg.Bedrock.Region = "us-east-1"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		// Env-only deployments run without a config file.
		cfg = &Config{}
		applyDefaults(cfg)
	} else if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		project := os.Getenv("AUTH_PROJECT_ID")
		cfg.Auth.Enabled = true
		cfg.Auth.Tokens = append(cfg.Auth.Tokens, AuthToken{Token: v, ProjectID: project})
	}
	if v := os.Getenv("AUTOMATION_KILL_SWITCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Automation.KillSwitch = b
		}
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Bedrock.ModelID = v
		cfg.Bedrock.Enabled = true
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Bedrock.Region = v
	}

	return cfg, nil
}
