package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds the complete mediator configuration
type Config struct {
	Canon       CanonConfig       `yaml:"canon" mapstructure:"canon"`
	Recall      RecallConfig      `yaml:"recall" mapstructure:"recall"`
	Dispute     DisputeConfig     `yaml:"dispute" mapstructure:"dispute"`
	Limits      LimitsConfig      `yaml:"limits" mapstructure:"limits"`
	Validator   ValidatorConfig   `yaml:"validator" mapstructure:"validator"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	RulesFile   string            `yaml:"rules_file" mapstructure:"rules_file"` // Optional YAML rule tables
}

// CanonConfig controls where canon documents live
type CanonConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`                         // Canon documents indexed by recall
	WriteDocuments bool   `yaml:"write_documents" mapstructure:"write_documents"` // Write a canon document for every FROZEN artifact
}

// RecallConfig controls the citation-recall index
type RecallConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"` // Attach prior art to mediations
	TopN    int  `yaml:"top_n" mapstructure:"top_n"`
}

// DisputeConfig controls dispute lifetime
type DisputeConfig struct {
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"` // Open disputes older than this are pruned
}

// LimitsConfig controls per-agent submission rate limiting (0 disables)
type LimitsConfig struct {
	PerAgentPerSecond float64               `yaml:"per_agent_per_second" mapstructure:"per_agent_per_second"`
	Burst             int                   `yaml:"burst" mapstructure:"burst"`
	Agents            map[string]AgentLimit `yaml:"agents,omitempty" mapstructure:"agents"`
}

// AgentLimit overrides the rate limit of one agent. Config keys are read
// lowercased, so overrides apply to lowercase agent names.
type AgentLimit struct {
	PerSecond float64 `yaml:"per_second" mapstructure:"per_second"`
	Burst     int     `yaml:"burst" mapstructure:"burst"`
}

// ValidatorConfig selects the semantic validator
type ValidatorConfig struct {
	Mode       string        `yaml:"mode" mapstructure:"mode"` // local, remote
	URL        string        `yaml:"url" mapstructure:"url"`   // Remote validator endpoint
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	HTTPProxy  string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    []string      `yaml:"no_proxy" mapstructure:"no_proxy"` // Hosts reached without the proxy
}

// StoreConfig selects the dispute/challenge store backend
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // file, postgres
	Dir         string `yaml:"dir" mapstructure:"dir"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CacheConfig controls caching of the recall index
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch mediation
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // DEBUG, INFO, WARN, ERROR
	Dir   string `yaml:"dir" mapstructure:"dir"`     // Empty logs to stderr
}

// BaseDir returns the default state directory ($HOME/.mediator)
func BaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mediator"
	}
	return filepath.Join(home, ".mediator")
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	base := BaseDir()
	return &Config{
		Canon: CanonConfig{
			Dir:            filepath.Join(base, "canon"),
			WriteDocuments: true,
		},
		Recall: RecallConfig{
			Enabled: true,
			TopN:    3,
		},
		Dispute: DisputeConfig{
			TTL: time.Hour,
		},
		Limits: LimitsConfig{
			PerAgentPerSecond: 0,
			Burst:             5,
		},
		Validator: ValidatorConfig{
			Mode:       "local",
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		},
		Store: StoreConfig{
			Driver: "file",
			Dir:    filepath.Join(base, "store"),
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(base, "cache"),
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}
