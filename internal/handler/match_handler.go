package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/hostelmatch/internal/middleware"
	"github.com/hitoshi/hostelmatch/internal/model"
)

// MatchServiceInterface はマッチハンドラーが必要とするサービスインターフェース。
type MatchServiceInterface interface {
	ListMatches(ctx context.Context) ([]model.Match, error)
}

// matchResponse はマッチのJSONレスポンス。
type matchResponse struct {
	ID        string    `json:"_id"`
	Friend1   string    `json:"friend1"`
	Friend2   string    `json:"friend2"`
	CreatedAt time.Time `json:"createdAt"`
}

func toMatchResponse(m model.Match) matchResponse {
	return matchResponse{
		ID:        m.ID,
		Friend1:   m.Friend1,
		Friend2:   m.Friend2,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

// MatchHandler はマッチ一覧のHTTPハンドラー。
type MatchHandler struct {
	service MatchServiceInterface
}

// NewMatchHandler はMatchHandlerを生成する。
func NewMatchHandler(service MatchServiceInterface) *MatchHandler {
	return &MatchHandler{service: service}
}

// ListMatches は成立済みマッチの一覧を返す。
// GET /api/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.service.ListMatches(r.Context())
	if err != nil {
		handleServiceError(w, r, err, msgFetchMatchesFailed)
		return
	}

	resp := make([]matchResponse, len(matches))
	for i, m := range matches {
		resp[i] = toMatchResponse(m)
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
