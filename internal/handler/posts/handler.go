package posts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/solace/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/solace/backend/internal/config"
	"github.com/zhouzirui/solace/backend/internal/model/post"
	"github.com/zhouzirui/solace/backend/internal/service/ai"
	"github.com/zhouzirui/solace/backend/internal/service/broadcast"
	"github.com/zhouzirui/solace/backend/internal/service/feed"
	postService "github.com/zhouzirui/solace/backend/internal/service/post"
	"github.com/zhouzirui/solace/backend/internal/service/session"
	"github.com/zhouzirui/solace/backend/internal/service/suggestion"
	"github.com/zhouzirui/solace/backend/pkg/utils"
)

// ErrEmptyContent rejects blank submissions when content is required.
var ErrEmptyContent = errors.New("content cannot be empty")

// Handler serves the post API.
type Handler struct {
	store     *postService.Store
	responder ai.Generator
	hub       *broadcast.Hub
	cfg       config.PostsConfig
}

// New creates the post handler. responder and hub may be nil.
func New(store *postService.Store, responder ai.Generator, hub *broadcast.Hub, cfg config.PostsConfig) *Handler {
	return &Handler{
		store:     store,
		responder: responder,
		hub:       hub,
		cfg:       cfg,
	}
}

// RegisterRoutes 注册帖子相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/posts", h.handleCreatePost)
	r.Get("/posts", h.handleListPosts)
	r.Post("/posts/{postID}/upvote", h.handleUpvote)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
}

type createPostRequest struct {
	Content   string  `json:"content"`
	Emotion   string  `json:"emotion"`
	SessionID *string `json:"session_id"`
}

type createPostResponse struct {
	PostID       string           `json:"post_id"`
	SessionID    string           `json:"session_id"`
	AIResponse   string           `json:"ai_response"`
	SimilarPosts []post.View      `json:"similar_posts"`
	Suggestions  []string         `json:"suggestions"`
	Sentiment    sentiment.Result `json:"sentiment"`
}

type upvoteResponse struct {
	Upvotes int `json:"upvotes"`
}

// handleCreatePost records the post before calling the AI, so a slow or failed
// provider never loses the submission.
func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	}

	var payload createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content, err := h.normalizeContent(payload.Content)
	if errors.Is(err, ErrEmptyContent) {
		utils.RespondError(w, http.StatusBadRequest, "Content cannot be empty")
		return
	}

	emotion := payload.Emotion
	if emotion == "" {
		emotion = post.DefaultEmotion
	}

	var candidate string
	if payload.SessionID != nil {
		candidate = *payload.SessionID
	}
	sessionID := h.store.Sessions().ResolveOrCreate(candidate)

	created, err := h.store.Create(ctx, sessionID, content, emotion)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Msg("failed to create post")
		utils.RespondError(w, http.StatusInternalServerError, "failed to create post")
		return
	}
	h.publish(broadcast.PostCreated, created)

	mood := sentiment.Analyze(content)
	aiText, degraded := ai.RespondOrFallback(ctx, h.responder, ai.Request{
		Content:   content,
		Emotion:   emotion,
		Sentiment: mood,
	})

	similar := h.store.FindSimilar(ctx, sessionID, emotion, h.cfg.SimilarLimit)

	suggestions := suggestion.For(emotion)
	if h.cfg.ActivitySuggestions && !degraded {
		suggestions = suggestion.WithActivities(emotion, aiText)
	}

	zerolog.Ctx(ctx).Debug().
		Str("post_id", created.ID).
		Str("emotion", emotion).
		Int("similar", len(similar)).
		Bool("ai_fallback", degraded).
		Msg("post created")

	utils.RespondJSON(w, http.StatusOK, createPostResponse{
		PostID:       created.ID,
		SessionID:    sessionID,
		AIResponse:   aiText,
		SimilarPosts: post.AnonymizeAll(similar),
		Suggestions:  suggestions,
		Sentiment:    mood,
	})
}

// normalizeContent trims and checks content only when the board requires it.
func (h *Handler) normalizeContent(raw string) (string, error) {
	if !h.cfg.RequireContent {
		return raw, nil
	}
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	limit := h.cfg.FeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if h.cfg.FeedMaxLimit > 0 && limit > h.cfg.FeedMaxLimit {
		limit = h.cfg.FeedMaxLimit
	}

	posts := h.store.List(r.Context(), r.URL.Query().Get("emotion"))
	utils.RespondJSON(w, http.StatusOK, feed.Rank(posts, limit))
}

func (h *Handler) handleUpvote(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	updated, err := h.store.Upvote(r.Context(), postID)
	if err != nil {
		if errors.Is(err, postService.ErrPostNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Post not found")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("post_id", postID).Msg("failed to upvote post")
		utils.RespondError(w, http.StatusInternalServerError, "failed to upvote post")
		return
	}
	h.publish(broadcast.PostUpvoted, updated)

	utils.RespondJSON(w, http.StatusOK, upvoteResponse{Upvotes: updated.Upvotes})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Sessions().Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, s)
}

func (h *Handler) publish(t broadcast.EventType, p post.Post) {
	if h.hub == nil {
		return
	}
	h.hub.Publish(broadcast.NewEvent(t, p))
}
