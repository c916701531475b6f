package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/hostelmatch/internal/middleware"
)

// FriendServiceInterface は友人ハンドラーが必要とするサービスインターフェース。
type FriendServiceInterface interface {
	ListFriends(ctx context.Context) ([]string, error)
}

// FriendHandler は友人一覧のHTTPハンドラー。
type FriendHandler struct {
	service FriendServiceInterface
}

// NewFriendHandler はFriendHandlerを生成する。
func NewFriendHandler(service FriendServiceInterface) *FriendHandler {
	return &FriendHandler{service: service}
}

// ListFriends は友人名の一覧を返す。
// GET /api/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.ListFriends(r.Context())
	if err != nil {
		handleServiceError(w, r, err, msgFetchFriendsFailed)
		return
	}

	if names == nil {
		names = []string{}
	}
	middleware.WriteJSON(w, http.StatusOK, names)
}
