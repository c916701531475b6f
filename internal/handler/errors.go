package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/hostelmatch/internal/middleware"
	"github.com/hitoshi/hostelmatch/internal/model"
)

// エンドポイントごとの500エラー文言
const (
	msgFetchFriendsFailed = "An error occurred while fetching friends."
	msgFetchMatchesFailed = "An error occurred while fetching matches."
	msgSubmitVoteFailed   = "An error occurred while submitting your vote."
	msgInternalError      = "An internal error occurred."
)

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外は internalMessage を返し、詳細はログのみに記録する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, internalMessage string) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code != model.ErrCodeInternal {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w, internalMessage)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeSelfVote, model.ErrCodeDuplicateMatch, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// apiNotFound は未定義のAPIパスに対してJSONの404を返す。
func apiNotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusNotFound, middleware.ErrorResponseBody{Error: "Not found."})
}

// apiMethodNotAllowed は許可されていないメソッドに対してJSONの405を返す。
func apiMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusMethodNotAllowed, middleware.ErrorResponseBody{Error: "Method not allowed."})
}
