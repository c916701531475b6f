package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/hostelmatch/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスのフォーマット。
// クライアントは error フィールドの文言をそのまま表示する。
type ErrorResponseBody struct {
	Error string `json:"error"`
}

// WriteErrorResponse はAPIErrorをHTTPエラーレスポンスとして書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	WriteJSON(w, statusCode, ErrorResponseBody{Error: apiErr.Message})
}

// WriteInternalServerError は500レスポンスを書き込む。
// 詳細はログのみに記録し、クライアントにはエンドポイントごとの一般的な文言を返す。
func WriteInternalServerError(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError(message))
}

// WriteJSON は任意の値をJSONレスポンスとして書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
