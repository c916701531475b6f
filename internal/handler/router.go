package handler

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/hostelmatch/internal/metrics"
	"github.com/hitoshi/hostelmatch/internal/middleware"
	"github.com/hitoshi/hostelmatch/internal/repository"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	HSTS              bool
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler

	// ヘルスチェック
	HealthChecker repository.HealthChecker

	// API
	FriendService FriendServiceInterface
	MatchService  MatchServiceInterface
	VoteService   VoteServiceInterface

	// クライアント。nilの場合は配信しない
	StaticFS fs.FS
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Recovery → SecurityHeaders → Logging → Metrics
//	/api/*: CORS → RateLimit(General) → [POST /api/vote のみ RateLimit(Vote)]
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(msgInternalError))
	r.Use(middleware.NewSecurityHeadersMiddleware(middleware.SecurityHeadersConfig{HSTS: deps.HSTS}))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))

	friendHandler := NewFriendHandler(deps.FriendService)
	matchHandler := NewMatchHandler(deps.MatchService)
	voteHandler := NewVoteHandler(deps.VoteService)

	// --- 運用系 ---
	r.Get("/health", HealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- API ---
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Get("/friends", friendHandler.ListFriends)
		r.Get("/matches", matchHandler.ListMatches)

		vote := r.With()
		if deps.RateLimiter != nil {
			vote = r.With(deps.RateLimiter.VoteMiddleware())
		}
		vote.Post("/vote", voteHandler.SubmitVote)

		r.NotFound(apiNotFound)
		r.MethodNotAllowed(apiMethodNotAllowed)
	})

	// --- クライアント ---
	if deps.StaticFS != nil {
		r.Handle("/*", NewStaticHandler(deps.StaticFS))
	}

	return r
}
