package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/solace/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/solace/backend/internal/config"
	"github.com/zhouzirui/solace/backend/internal/logger"
	"github.com/zhouzirui/solace/backend/internal/service/ai"
)

func main() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	log := logger.New(out, "debug")

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("无法加载 .env，改用系统环境变量")
	}

	mode := flag.String("mode", "", "测试模式: respond, post, feed 或 upvote")
	addr := flag.String("addr", "http://localhost:8080", "后端地址 (post/feed/upvote 模式)")
	content := flag.String("content", "", "帖子内容")
	emotion := flag.String("emotion", "neutral", "情绪标签")
	session := flag.String("session", "", "复用的 session_id，留空则由服务端生成")
	postID := flag.String("post", "", "upvote 模式的 post_id")
	limit := flag.Int("limit", 0, "feed 模式的条数，0 表示服务端默认")
	timeout := flag.Duration("timeout", 45*time.Second, "请求超时时间")

	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var err error
	switch *mode {
	case "respond":
		err = runRespond(ctx, log, *content, *emotion)
	case "post":
		err = runPost(ctx, log, *addr, *content, *emotion, *session)
	case "feed":
		err = runFeed(ctx, log, *addr, *emotion, *limit)
	case "upvote":
		err = runUpvote(ctx, log, *addr, *postID)
	default:
		flag.Usage()
		log.Fatal().Msg("请通过 -mode=respond|post|feed|upvote 指定测试模式")
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", *mode).Msg("测试失败")
	}
}

// runRespond calls the AI provider directly, bypassing the HTTP server.
func runRespond(ctx context.Context, log zerolog.Logger, content, emotion string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("respond 模式需要通过 -content 提供内容")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.AI.Enabled() {
		return ai.ErrNotConfigured
	}

	responder, err := ai.NewFromConfig(ctx, cfg.AI)
	if err != nil {
		return err
	}

	mood := sentiment.Analyze(content)
	log.Info().
		Str("model", cfg.AI.Model).
		Str("prompt_mode", responder.Mode()).
		Float64("polarity", mood.Polarity).
		Msg("开始调用 AI")

	start := time.Now()
	text, err := responder.Generate(ctx, ai.Request{Content: content, Emotion: emotion, Sentiment: mood})
	if err != nil {
		return err
	}

	log.Info().Dur("duration", time.Since(start)).Msg("AI 调用成功")
	fmt.Println(text)
	return nil
}

func runPost(ctx context.Context, log zerolog.Logger, addr, content, emotion, session string) error {
	body := map[string]any{"content": content, "emotion": emotion}
	if session != "" {
		body["session_id"] = session
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	log.Info().Str("emotion", emotion).Str("session_id", session).Msg("提交帖子")
	return call(ctx, http.MethodPost, strings.TrimRight(addr, "/")+"/api/posts", bytes.NewReader(payload))
}

func runFeed(ctx context.Context, log zerolog.Logger, addr, emotion string, limit int) error {
	query := url.Values{}
	if emotion != "" {
		query.Set("emotion", emotion)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}

	target := strings.TrimRight(addr, "/") + "/api/posts"
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	log.Info().Str("url", target).Msg("拉取社区动态")
	return call(ctx, http.MethodGet, target, nil)
}

func runUpvote(ctx context.Context, log zerolog.Logger, addr, postID string) error {
	if postID == "" {
		return fmt.Errorf("upvote 模式需要通过 -post 指定 post_id")
	}

	log.Info().Str("post_id", postID).Msg("点赞")
	return call(ctx, http.MethodPost, strings.TrimRight(addr, "/")+"/api/posts/"+url.PathEscape(postID)+"/upvote", nil)
}

// call prints the pretty-printed response body and fails on non-2xx statuses.
func call(ctx context.Context, method, target string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		raw = pretty.Bytes()
	}
	fmt.Println(string(raw))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: %s", method, target, resp.Status)
	}
	return nil
}
