// Package config provides configuration types and loading for coachbridge.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Backend, Chat, Quota, Cache, Notify.
type Config struct {
	Backend BackendConfig `json:"backend"`
	Chat    ChatConfig    `json:"chat"`
	Quota   QuotaConfig   `json:"quota"`
	Cache   CacheConfig   `json:"cache"`
	Notify  NotifyConfig  `json:"notify"`
}

// BackendConfig contains coaching-backend connection settings.
type BackendConfig struct {
	BaseURL   string        `json:"baseUrl" envconfig:"BACKEND_URL"`
	AuthToken string        `json:"authToken" envconfig:"BACKEND_TOKEN"`
	Timeout   time.Duration `json:"timeout" envconfig:"BACKEND_TIMEOUT"`
}

// ChatConfig tunes the reconciliation engine.
type ChatConfig struct {
	PollBaseDelay   time.Duration `json:"pollBaseDelay" envconfig:"POLL_BASE_DELAY"`
	PollCapDelay    time.Duration `json:"pollCapDelay" envconfig:"POLL_CAP_DELAY"`
	PollMaxAttempts int           `json:"pollMaxAttempts" envconfig:"POLL_MAX_ATTEMPTS"`
	RevealMinDelay  time.Duration `json:"revealMinDelay" envconfig:"REVEAL_MIN_DELAY"`
	RevealMaxDelay  time.Duration `json:"revealMaxDelay" envconfig:"REVEAL_MAX_DELAY"`
}

// QuotaConfig contains local send-allowance settings.
type QuotaConfig struct {
	// DailyLimit is the number of sends allowed per day; 0 means
	// unlimited (the server still enforces its own quota).
	DailyLimit int `json:"dailyLimit" envconfig:"QUOTA_DAILY_LIMIT"`
}

// CacheConfig selects and configures the transcript snapshot cache.
type CacheConfig struct {
	// Driver is one of "memory", "sqlite", "redis".
	Driver        string        `json:"driver" envconfig:"CACHE_DRIVER"`
	Path          string        `json:"path" envconfig:"CACHE_PATH"`
	RedisAddr     string        `json:"redisAddr" envconfig:"CACHE_REDIS_ADDR"`
	RedisPassword string        `json:"redisPassword" envconfig:"CACHE_REDIS_PASSWORD"`
	RedisDB       int           `json:"redisDb" envconfig:"CACHE_REDIS_DB"`
	TTL           time.Duration `json:"ttl" envconfig:"CACHE_TTL"`
}

// NotifyConfig configures the optional reply-ready notification feed.
type NotifyConfig struct {
	Enabled       bool   `json:"enabled" envconfig:"NOTIFY_ENABLED"`
	KafkaBrokers  string `json:"kafkaBrokers" envconfig:"NOTIFY_KAFKA_BROKERS"`
	Topic         string `json:"topic" envconfig:"NOTIFY_TOPIC"`
	ConsumerGroup string `json:"consumerGroup" envconfig:"NOTIFY_CONSUMER_GROUP"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://127.0.0.1:8780",
			Timeout: 30 * time.Second,
		},
		Chat: ChatConfig{
			PollBaseDelay:   100 * time.Millisecond,
			PollCapDelay:    2 * time.Second,
			PollMaxAttempts: 20,
			RevealMinDelay:  30 * time.Millisecond,
			RevealMaxDelay:  90 * time.Millisecond,
		},
		Quota: QuotaConfig{
			DailyLimit: 0,
		},
		Cache: CacheConfig{
			Driver: "sqlite",
			TTL:    7 * 24 * time.Hour,
		},
		Notify: NotifyConfig{
			Enabled: false,
			Topic:   "chat.replies",
		},
	}
}
