package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Prompt modes understood by the AI responder.
const (
	PromptModeSupport    = "support"
	PromptModeActivities = "activities"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Posts  PostsConfig
	Log    LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses configuration from an explicit environment instead of the process one.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := cfg.AI.validate(); err != nil {
		return nil, err
	}
	cfg.Posts.normalize()
	cfg.Posts.ActivitySuggestions = cfg.AI.PromptMode == PromptModeActivities

	return cfg, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Addr string
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	BaseURL     string        `env:"AI_API_URL" envDefault:"https://openwebui.com/m/swatibhalla5/luna"`
	APIKey      string        `env:"AI_API_KEY" envDefault:"sk-your-key-here"`
	Model       string        `env:"DEFAULT_MODEL" envDefault:"gemma2:2b"`
	Temperature float64       `env:"AI_TEMPERATURE" envDefault:"0.7"`
	Timeout     time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`
	PromptMode  string        `env:"AI_PROMPT_MODE" envDefault:"support"`
	RateLimit   float64       `env:"AI_RATE_LIMIT" envDefault:"5"`
	RateBurst   int           `env:"AI_RATE_BURST" envDefault:"5"`
}

// Enabled 表示是否提供了必需的模型配置。
func (c AIConfig) Enabled() bool {
	return c.BaseURL != "" && c.Model != "" && c.APIKey != ""
}

func (c *AIConfig) validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.PromptMode = strings.ToLower(strings.TrimSpace(c.PromptMode))

	switch c.PromptMode {
	case PromptModeSupport, PromptModeActivities:
	default:
		return fmt.Errorf("invalid AI_PROMPT_MODE value: %q", c.PromptMode)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid AI_TIMEOUT value: %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid AI_RATE_LIMIT value: %v", c.RateLimit)
	}
	if c.RateBurst < 1 {
		c.RateBurst = 1
	}
	return nil
}

// NewChatModel 使用配置创建一个模型实例。
// The endpoint speaks the OpenAI-compatible chat completions protocol, so the Ark
// client is pointed at it through BaseURL with a bearer API key.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("AI endpoint, key or model missing")
	}

	temperature := float32(c.Temperature)
	timeout := c.Timeout
	// 单次请求，失败直接走兜底回复，不让 SDK 自己重试
	retries := 0

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		Temperature: &temperature,
		Timeout:     &timeout,
		RetryTimes:  &retries,
	}

	return ark.NewChatModel(ctx, cfg)
}

// PostsConfig controls the post store behavior exposed over HTTP.
type PostsConfig struct {
	RequireContent bool  `env:"POSTS_REQUIRE_CONTENT" envDefault:"true"`
	SimilarLimit   int   `env:"POSTS_SIMILAR_LIMIT" envDefault:"3"`
	FeedLimit      int   `env:"POSTS_FEED_LIMIT" envDefault:"10"`
	FeedMaxLimit   int   `env:"POSTS_FEED_MAX_LIMIT" envDefault:"100"`
	MaxBodyBytes   int64 `env:"POSTS_MAX_BODY_BYTES" envDefault:"65536"`

	// ActivitySuggestions is derived from AI_PROMPT_MODE=activities: the AI reply's
	// lines are appended to the suggestion table.
	ActivitySuggestions bool
}

func (c *PostsConfig) normalize() {
	if c.MaxBodyBytes < 1 {
		c.MaxBodyBytes = 64 << 10
	}
	if c.SimilarLimit < 0 {
		c.SimilarLimit = 0
	}
	if c.FeedMaxLimit < 1 {
		c.FeedMaxLimit = 100
	}
	if c.FeedLimit < 1 {
		c.FeedLimit = 10
	}
	if c.FeedLimit > c.FeedMaxLimit {
		c.FeedLimit = c.FeedMaxLimit
	}
}

// LogConfig selects log verbosity and output format.
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Production reports whether logs should be emitted as JSON.
func (c LogConfig) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

