package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hitoshi/hostelmatch/internal/middleware"
	"github.com/hitoshi/hostelmatch/internal/model"
)

// maxVoteBodyBytes は投票リクエストボディの上限サイズ。
const maxVoteBodyBytes = 1 << 16

// VoteServiceInterface は投票ハンドラーが必要とするサービスインターフェース。
type VoteServiceInterface interface {
	SubmitVote(ctx context.Context, voter, roommate string) (*model.Match, error)
}

// voteRequest はPOST /api/voteのリクエストボディ。
type voteRequest struct {
	Friend   string `json:"friend"`
	Roommate string `json:"roommate"`
}

// voteResponse はPOST /api/voteの成功レスポンス。
type voteResponse struct {
	Message string        `json:"message"`
	Match   matchResponse `json:"match"`
}

// VoteHandler は投票のHTTPハンドラー。
type VoteHandler struct {
	service VoteServiceInterface
}

// NewVoteHandler はVoteHandlerを生成する。
func NewVoteHandler(service VoteServiceInterface) *VoteHandler {
	return &VoteHandler{service: service}
}

// SubmitVote は投票を受け付け、成立したマッチを返す。
// POST /api/vote
func (h *VoteHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxVoteBodyBytes)).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}
	// 両方とも空の場合は自己投票として扱う
	if req.Friend != req.Roommate && (req.Friend == "" || req.Roommate == "") {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	match, err := h.service.SubmitVote(r.Context(), req.Friend, req.Roommate)
	if err != nil {
		handleServiceError(w, r, err, msgSubmitVoteFailed)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, voteResponse{
		Message: fmt.Sprintf("Vote recorded: %s has matched with %s.", match.Friend1, match.Friend2),
		Match:   toMatchResponse(*match),
	})
}
