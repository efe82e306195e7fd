package retry

import "time"

// Config 重试配置
type Config struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay" yaml:"max_delay"`
}

// DefaultConfig 默认不重试
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}
}
