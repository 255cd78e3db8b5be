package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/solace/backend/internal/config"
	"github.com/zhouzirui/solace/backend/internal/handler/feed"
	"github.com/zhouzirui/solace/backend/internal/handler/pages"
	"github.com/zhouzirui/solace/backend/internal/handler/posts"
	middlewarePkg "github.com/zhouzirui/solace/backend/internal/middleware"
	"github.com/zhouzirui/solace/backend/internal/service/ai"
	"github.com/zhouzirui/solace/backend/internal/service/broadcast"
	postService "github.com/zhouzirui/solace/backend/internal/service/post"
	"github.com/zhouzirui/solace/backend/pkg/utils"
)

// Deps bundles the services the router hands to its handlers.
type Deps struct {
	Logger    zerolog.Logger
	Store     *postService.Store
	Responder ai.Generator
	Hub       *broadcast.Hub
	Posts     config.PostsConfig
}

type healthResponse struct {
	Status   string    `json:"status"`
	Posts    int       `json:"posts"`
	Sessions int       `json:"sessions"`
	Time     time.Time `json:"time"`
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) (http.Handler, error) {
	pageHandler, err := pages.New()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(deps.Logger))
	r.Use(middlewarePkg.Recover)
	r.Use(middlewarePkg.CORS)

	postHandler := posts.New(deps.Store, deps.Responder, deps.Hub, deps.Posts)

	r.Route("/api", func(api chi.Router) {
		postHandler.RegisterRoutes(api)

		// live feed only when a hub is running
		if deps.Hub != nil {
			feed.New(deps.Hub).RegisterRoutes(api)
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, healthResponse{
			Status:   "ok",
			Posts:    deps.Store.Len(),
			Sessions: deps.Store.Sessions().Len(),
			Time:     time.Now().UTC(),
		})
	})

	pageHandler.RegisterRoutes(r)

	return r, nil
}
