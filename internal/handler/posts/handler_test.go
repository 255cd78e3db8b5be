package posts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/solace/backend/internal/config"
	"github.com/zhouzirui/solace/backend/internal/model/post"
	"github.com/zhouzirui/solace/backend/internal/service/ai"
	"github.com/zhouzirui/solace/backend/internal/service/broadcast"
	postservice "github.com/zhouzirui/solace/backend/internal/service/post"
	"github.com/zhouzirui/solace/backend/internal/service/session"
	"github.com/zhouzirui/solace/backend/pkg/utils"
)

type fakeResponder struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []ai.Request
}

func (f *fakeResponder) Generate(_ context.Context, req ai.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

type createResult struct {
	PostID       string      `json:"post_id"`
	SessionID    string      `json:"session_id"`
	AIResponse   string      `json:"ai_response"`
	SimilarPosts []post.View `json:"similar_posts"`
	Suggestions  []string    `json:"suggestions"`
	Sentiment    struct {
		Polarity float64 `json:"polarity"`
		Label    string  `json:"label"`
	} `json:"sentiment"`
}

func defaultPostsConfig() config.PostsConfig {
	return config.PostsConfig{RequireContent: true, SimilarLimit: 3, FeedLimit: 10, FeedMaxLimit: 100}
}

func setupRouter(responder ai.Generator, cfg config.PostsConfig) (*chi.Mux, *postservice.Store, *broadcast.Hub) {
	store := postservice.NewStore(session.NewRegistry())
	hub := broadcast.NewHub(16)
	handler := New(store, responder, hub, cfg)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store, hub
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createPost(t *testing.T, r http.Handler, body map[string]any) createResult {
	t.Helper()
	resp := doJSON(t, r, http.MethodPost, "/posts", body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out createResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestCreatePostAssemblesResponse(t *testing.T) {
	responder := &fakeResponder{reply: "I hear you."}
	r, store, _ := setupRouter(responder, defaultPostsConfig())

	out := createPost(t, r, map[string]any{"content": "  I miss home  ", "emotion": "sad"})

	assert.NotEmpty(t, out.PostID)
	assert.NotEmpty(t, out.SessionID)
	assert.Equal(t, "I hear you.", out.AIResponse)
	assert.Empty(t, out.SimilarPosts)
	assert.Equal(t, []string{
		"Try the 5-4-3-2-1 grounding technique",
		"A short walk might help clear your mind",
	}, out.Suggestions)
	assert.NotEmpty(t, out.Sentiment.Label)

	stored, err := store.Get(context.Background(), out.PostID)
	require.NoError(t, err)
	assert.Equal(t, "I miss home", stored.Content)
	assert.Equal(t, out.SessionID, stored.SessionID)

	require.Len(t, responder.calls, 1)
	assert.Equal(t, "sad", responder.calls[0].Emotion)
	assert.Equal(t, "I miss home", responder.calls[0].Content)
}

func TestCreatePostDefaultsEmotionToNeutral(t *testing.T) {
	r, store, _ := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())

	out := createPost(t, r, map[string]any{"content": "just checking in"})

	stored, err := store.Get(context.Background(), out.PostID)
	require.NoError(t, err)
	assert.Equal(t, "neutral", stored.Emotion)
	assert.Equal(t, []string{
		"Take a moment to reflect on this experience",
		"Consider discussing this with someone you trust",
	}, out.Suggestions)
}

func TestCreatePostRejectsEmptyContent(t *testing.T) {
	r, store, _ := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())

	for _, content := range []string{"", "   \n\t"} {
		resp := doJSON(t, r, http.MethodPost, "/posts", map[string]any{"content": content, "emotion": "sad"})
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		var body utils.ErrorResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "Content cannot be empty", body.Detail)
	}
	assert.Zero(t, store.Len())
}

func TestCreatePostAcceptsEmptyContentWhenNotValidating(t *testing.T) {
	cfg := defaultPostsConfig()
	cfg.RequireContent = false
	r, store, _ := setupRouter(&fakeResponder{reply: "ok"}, cfg)

	out := createPost(t, r, map[string]any{"content": "", "emotion": "happy"})
	assert.NotEmpty(t, out.PostID)
	assert.Equal(t, 1, store.Len())
}

func TestCreatePostInvalidBody(t *testing.T) {
	r, _, _ := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())

	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader("{not json"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreatePostUsesFallbackWhenAIFails(t *testing.T) {
	r, store, _ := setupRouter(&fakeResponder{err: errors.New("provider down")}, defaultPostsConfig())

	out := createPost(t, r, map[string]any{"content": "nobody listens", "emotion": "angry"})

	assert.Equal(t, ai.FallbackResponse, out.AIResponse)
	assert.Equal(t, 1, store.Len())
}

func TestCreatePostWithoutResponderStillSucceeds(t *testing.T) {
	var missing *ai.Responder
	r, _, _ := setupRouter(missing, defaultPostsConfig())

	out := createPost(t, r, map[string]any{"content": "hello", "emotion": "happy"})
	assert.Equal(t, ai.FallbackResponse, out.AIResponse)
}

func TestCreatePostReusesKnownSessionAndReplacesUnknown(t *testing.T) {
	r, store, _ := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())

	first := createPost(t, r, map[string]any{"content": "one", "emotion": "sad"})
	second := createPost(t, r, map[string]any{"content": "two", "emotion": "sad", "session_id": first.SessionID})
	assert.Equal(t, first.SessionID, second.SessionID)

	third := createPost(t, r, map[string]any{"content": "three", "session_id": "forged"})
	assert.NotEqual(t, "forged", third.SessionID)
	assert.NotEqual(t, first.SessionID, third.SessionID)

	s, err := store.Sessions().Get(first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, s.PostCount)
}

func TestCreatePostReturnsSimilarFromOtherSessionsOnly(t *testing.T) {
	r, _, _ := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())

	a := createPost(t, r, map[string]any{"content": "A", "emotion": "sad"})
	b := createPost(t, r, map[string]any{"content": "B", "emotion": "sad"})

	require.Len(t, b.SimilarPosts, 1)
	assert.Equal(t, a.PostID, b.SimilarPosts[0].ID)

	again := createPost(t, r, map[string]any{"content": "A2", "emotion": "sad", "session_id": a.SessionID})
	require.Len(t, again.SimilarPosts, 1)
	assert.Equal(t, b.PostID, again.SimilarPosts[0].ID)
}

func TestCreatePostSimilarPostsAreAnonymized(t *testing.T) {
	r, _, _ := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())
	createPost(t, r, map[string]any{"content": "A", "emotion": "sad"})

	resp := doJSON(t, r, http.MethodPost, "/posts", map[string]any{"content": "B", "emotion": "sad"})
	require.Equal(t, http.StatusOK, resp.Code)

	var raw struct {
		SimilarPosts []map[string]any `json:"similar_posts"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &raw))
	require.Len(t, raw.SimilarPosts, 1)
	assert.NotContains(t, raw.SimilarPosts[0], "session_id")
}

func TestCreatePostPublishesEvent(t *testing.T) {
	r, _, hub := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())
	events, cancel := hub.Subscribe()
	defer cancel()

	out := createPost(t, r, map[string]any{"content": "hi", "emotion": "happy"})

	select {
	case evt := <-events:
		assert.Equal(t, broadcast.PostCreated, evt.Type)
		assert.Equal(t, out.PostID, evt.Post.ID)
	case <-time.After(time.Second):
		t.Fatal("expected post.created event")
	}
}

func TestListPostsRankedAndAnonymized(t *testing.T) {
	r, _, _ := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())

	low := createPost(t, r, map[string]any{"content": "low", "emotion": "sad"})
	high := createPost(t, r, map[string]any{"content": "high", "emotion": "sad"})
	other := createPost(t, r, map[string]any{"content": "other", "emotion": "happy"})

	for i := 0; i < 2; i++ {
		resp := doJSON(t, r, http.MethodPost, "/posts/"+high.PostID+"/upvote", nil)
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := doJSON(t, r, http.MethodGet, "/posts", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var views []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &views))
	require.Len(t, views, 3)
	assert.Equal(t, high.PostID, views[0]["post_id"])
	assert.Equal(t, other.PostID, views[1]["post_id"])
	assert.Equal(t, low.PostID, views[2]["post_id"])
	for _, v := range views {
		assert.NotContains(t, v, "session_id")
	}

	resp = doJSON(t, r, http.MethodGet, "/posts?emotion=happy", nil)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, other.PostID, views[0]["post_id"])
}

func TestListPostsLimit(t *testing.T) {
	cfg := defaultPostsConfig()
	cfg.FeedLimit = 2
	cfg.FeedMaxLimit = 3
	r, _, _ := setupRouter(&fakeResponder{reply: "ok"}, cfg)

	for i := 0; i < 5; i++ {
		createPost(t, r, map[string]any{"content": "post", "emotion": "neutral"})
	}

	cases := map[string]int{"/posts": 2, "/posts?limit=1": 1, "/posts?limit=50": 3}
	for path, want := range cases {
		resp := doJSON(t, r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.Code, path)

		var views []post.View
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &views))
		assert.Len(t, views, want, path)
	}

	for _, path := range []string{"/posts?limit=0", "/posts?limit=-3", "/posts?limit=ten"} {
		resp := doJSON(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code, path)
	}
}

func TestListPostsEmptyIsArray(t *testing.T) {
	r, _, _ := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())

	resp := doJSON(t, r, http.MethodGet, "/posts", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, "[]", resp.Body.String())
}

func TestUpvote(t *testing.T) {
	r, _, hub := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())
	out := createPost(t, r, map[string]any{"content": "vote me", "emotion": "happy"})

	events, cancel := hub.Subscribe()
	defer cancel()

	for want := 1; want <= 2; want++ {
		resp := doJSON(t, r, http.MethodPost, "/posts/"+out.PostID+"/upvote", nil)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"upvotes":%d}`, want), resp.Body.String())
	}

	evt := <-events
	assert.Equal(t, broadcast.PostUpvoted, evt.Type)
	assert.Equal(t, 1, evt.Post.Upvotes)
}

func TestUpvoteUnknownPost(t *testing.T) {
	r, store, _ := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())
	createPost(t, r, map[string]any{"content": "x", "emotion": "happy"})
	before := store.List(context.Background(), "")

	resp := doJSON(t, r, http.MethodPost, "/posts/zz/upvote", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, utils.CodeNotFound, body.Error)
	assert.Equal(t, "Post not found", body.Detail)
	assert.Equal(t, before, store.List(context.Background(), ""))
}

func TestGetSession(t *testing.T) {
	r, _, _ := setupRouter(&fakeResponder{reply: "ok"}, defaultPostsConfig())
	out := createPost(t, r, map[string]any{"content": "x", "emotion": "happy"})
	createPost(t, r, map[string]any{"content": "y", "emotion": "happy", "session_id": out.SessionID})

	resp := doJSON(t, r, http.MethodGet, "/sessions/"+out.SessionID, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var s post.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &s))
	assert.Equal(t, out.SessionID, s.ID)
	assert.Equal(t, 2, s.PostCount)

	resp = doJSON(t, r, http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreatePostActivitiesModeAppendsReplyLines(t *testing.T) {
	cfg := defaultPostsConfig()
	cfg.ActivitySuggestions = true
	responder := &fakeResponder{reply: "- Take a walk outside\n- Call someone you trust"}
	r, _, _ := setupRouter(responder, cfg)

	out := createPost(t, r, map[string]any{"content": "Today was great", "emotion": "happy"})

	assert.Equal(t, []string{
		"Consider journaling about this positive experience",
		"Share this joy with someone important to you",
		"Take a walk outside",
		"Call someone you trust",
	}, out.Suggestions)
}

func TestCreatePostActivitiesModeIgnoresFallbackText(t *testing.T) {
	cfg := defaultPostsConfig()
	cfg.ActivitySuggestions = true
	r, _, _ := setupRouter(&fakeResponder{err: errors.New("timeout")}, cfg)

	out := createPost(t, r, map[string]any{"content": "meh", "emotion": "sad"})

	assert.Equal(t, ai.FallbackResponse, out.AIResponse)
	assert.Equal(t, []string{
		"Try the 5-4-3-2-1 grounding technique",
		"A short walk might help clear your mind",
	}, out.Suggestions)
}

func TestCreatePostRejectsOversizedBody(t *testing.T) {
	cfg := defaultPostsConfig()
	cfg.MaxBodyBytes = 128
	responder := &fakeResponder{reply: "ok"}
	r, store, _ := setupRouter(responder, cfg)

	resp := doJSON(t, r, http.MethodPost, "/posts", map[string]any{
		"content": strings.Repeat("a", 1024),
		"emotion": "sad",
	})

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, utils.CodeTooLarge, body.Error)
	assert.Zero(t, store.Len())
	assert.Empty(t, responder.calls)

	ok := doJSON(t, r, http.MethodPost, "/posts", map[string]any{"content": "short", "emotion": "sad"})
	assert.Equal(t, http.StatusOK, ok.Code)
}
