// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError はクライアントに返すドメインエラーを表す。
// Messageはそのままレスポンスの error フィールドに入る。
type APIError struct {
	Code    string // エラーコード
	Message string // クライアント向けメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeSelfVote       = "SELF_VOTE"
	ErrCodeDuplicateMatch = "DUPLICATE_MATCH"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// NewSelfVoteError は自分自身をルームメイトに選んだ投票のエラーを生成する。
func NewSelfVoteError() *APIError {
	return &APIError{
		Code:    ErrCodeSelfVote,
		Message: "You cannot vote for yourself as a roommate.",
	}
}

// NewDuplicateMatchError は既に存在するペアへの投票のエラーを生成する。
// 投票の順序（A→B / B→A）は問わない。
func NewDuplicateMatchError() *APIError {
	return &APIError{
		Code:    ErrCodeDuplicateMatch,
		Message: "This match already exists.",
	}
}

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidRequest,
		Message: "Invalid request body.",
	}
}

// NewRateLimitedError はレート制限超過のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:    ErrCodeRateLimited,
		Message: "Too many requests. Please try again later.",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、messageにはエンドポイントごとの一般的な文言を渡す。
func NewInternalError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}
