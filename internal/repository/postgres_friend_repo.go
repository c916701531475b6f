package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/hostelmatch/internal/model"
)

// PostgresFriendRepo はPostgreSQLを使用した友人リポジトリ。
type PostgresFriendRepo struct {
	db *sql.DB
}

// NewPostgresFriendRepo はPostgresFriendRepoを生成する。
func NewPostgresFriendRepo(db *sql.DB) *PostgresFriendRepo {
	return &PostgresFriendRepo{db: db}
}

// ListNames は登録済みの友人名を登録順に返す。
func (r *PostgresFriendRepo) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM friends ORDER BY created_at, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("友人一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("友人データの読み取りに失敗しました: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("友人一覧の走査に失敗しました: %w", err)
	}

	return names, nil
}

// Create は友人を作成する。
func (r *PostgresFriendRepo) Create(ctx context.Context, friend *model.Friend) error {
	if friend.ID == "" {
		friend.ID = uuid.New().String()
	}
	if friend.CreatedAt.IsZero() {
		friend.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO friends (id, name, created_at) VALUES ($1, $2, $3)`,
		friend.ID, friend.Name, friend.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("友人の作成に失敗しました: %w", err)
	}

	return nil
}

// compile-time interface check
var _ FriendRepository = (*PostgresFriendRepo)(nil)
