// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/hostelmatch/internal/model"
)

// ErrDuplicateMatch はストアの一意制約により同一ペアのマッチ作成が拒否されたことを示す。
// 重複チェックと挿入の間に並行投票が割り込んだ場合に返る。
var ErrDuplicateMatch = errors.New("match already exists for this pair")

// FriendRepository は友人データの永続化インターフェース。
type FriendRepository interface {
	// ListNames は登録済みの友人名を登録順に返す。0件の場合は空スライスを返す。
	ListNames(ctx context.Context) ([]string, error)

	// Create は友人を作成する。IDが空の場合は採番する。
	Create(ctx context.Context, friend *model.Friend) error
}

// MatchRepository はマッチデータの永続化インターフェース。
type MatchRepository interface {
	// List は全マッチを作成順に返す。0件の場合は空スライスを返す。
	List(ctx context.Context) ([]model.Match, error)

	// FindByPair は a, b の順序なしペアに一致するマッチを検索する。
	// 見つからない場合はnilを返す。
	FindByPair(ctx context.Context, a, b string) (*model.Match, error)

	// Create はマッチを作成する。IDが空の場合は採番する。
	// 同一ペアが既に存在する場合はErrDuplicateMatchを返す。
	Create(ctx context.Context, match *model.Match) error
}

// HealthChecker はストアへの疎通確認インターフェース。
// *sql.DBはそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}
