package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/zhouzirui/solace/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/solace/backend/internal/config"
	"github.com/zhouzirui/solace/backend/internal/logger"
)

// FallbackResponse replaces the generated text whenever the provider call fails.
const FallbackResponse = "Thank you for sharing. Your feelings are important."

const defaultTimeout = 30 * time.Second

var (
	ErrNotConfigured = errors.New("ai responder not configured")
	ErrEmptyResponse = errors.New("ai returned an empty response")
)

// Request is what the responder needs to know about a post.
type Request struct {
	Content   string
	Emotion   string
	Sentiment sentiment.Result
}

// Generator produces supportive commentary for a post.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Options tune a Responder independently of how its chat model was built.
type Options struct {
	PromptMode string
	Timeout    time.Duration
	RateLimit  float64
	RateBurst  int
}

// OptionsFromConfig maps AI configuration onto responder options.
func OptionsFromConfig(cfg config.AIConfig) Options {
	return Options{
		PromptMode: cfg.PromptMode,
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
	}
}

// Responder runs the prompt template and chat model as one eino chain.
type Responder struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	mode    string
	timeout time.Duration
	limiter *rate.Limiter
}

// NewFromConfig builds the chat model described by cfg and wraps it in a Responder.
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (*Responder, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewResponder(ctx, chatModel, OptionsFromConfig(cfg))
}

// NewResponder compiles the responder chain around chatModel.
func NewResponder(ctx context.Context, chatModel model.BaseChatModel, opts Options) (*Responder, error) {
	if chatModel == nil {
		return nil, ErrNotConfigured
	}

	mode := opts.PromptMode
	if mode == "" {
		mode = config.PromptModeSupport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(newPromptTemplate(mode))
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile responder chain: %w", err)
	}

	r := &Responder{
		chain:   runnable,
		mode:    mode,
		timeout: timeout,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return r, nil
}

// Mode reports the prompt mode in use.
func (r *Responder) Mode() string {
	return r.mode
}

// Generate makes a single bounded attempt at the provider. Failures are returned,
// never masked; see RespondOrFallback for the degrade policy.
func (r *Responder) Generate(ctx context.Context, req Request) (string, error) {
	if r == nil || r.chain == nil {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for ai rate limiter: %w", err)
		}
	}

	msg, err := r.chain.Invoke(ctx, buildChainInput(req))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if msg == nil {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func buildChainInput(req Request) map[string]any {
	return map[string]any{
		"tone":      describeEmotion(req.Emotion),
		"emotion":   req.Emotion,
		"content":   req.Content,
		"sentiment": string(req.Sentiment.Label),
	}
}

// RespondOrFallback applies the degrade policy: any generator error is logged and
// replaced with FallbackResponse. degraded reports whether that happened.
func RespondOrFallback(ctx context.Context, gen Generator, req Request) (text string, degraded bool) {
	if gen == nil {
		return FallbackResponse, true
	}

	text, err := gen.Generate(ctx, req)
	if err != nil {
		logger.FromContext(ctx).Warn().
			Err(err).
			Str("emotion", req.Emotion).
			Msg("ai response unavailable, using fallback")
		return FallbackResponse, true
	}
	return text, false
}
