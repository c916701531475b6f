package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/hostelmatch/internal/model"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const pgUniqueViolation = "23505"

// PostgresMatchRepo はPostgreSQLを使用したマッチリポジトリ。
// ペアの一意性は (LEAST(friend1, friend2), GREATEST(friend1, friend2)) の一意インデックスで保証する。
type PostgresMatchRepo struct {
	db *sql.DB
}

// NewPostgresMatchRepo はPostgresMatchRepoを生成する。
func NewPostgresMatchRepo(db *sql.DB) *PostgresMatchRepo {
	return &PostgresMatchRepo{db: db}
}

// List は全マッチを作成順に返す。
func (r *PostgresMatchRepo) List(ctx context.Context) ([]model.Match, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, friend1, friend2, created_at FROM matches ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("マッチ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	matches := make([]model.Match, 0)
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.Friend1, &m.Friend2, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("マッチデータの読み取りに失敗しました: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("マッチ一覧の走査に失敗しました: %w", err)
	}

	return matches, nil
}

// FindByPair は a, b の順序なしペアに一致するマッチを検索する。見つからない場合はnilを返す。
func (r *PostgresMatchRepo) FindByPair(ctx context.Context, a, b string) (*model.Match, error) {
	m := &model.Match{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, friend1, friend2, created_at FROM matches
		 WHERE (friend1 = $1 AND friend2 = $2) OR (friend1 = $2 AND friend2 = $1)
		 LIMIT 1`,
		a, b,
	).Scan(&m.ID, &m.Friend1, &m.Friend2, &m.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ペアによるマッチの検索に失敗しました: %w", err)
	}

	return m, nil
}

// Create はマッチを作成する。一意制約違反の場合はErrDuplicateMatchを返す。
func (r *PostgresMatchRepo) Create(ctx context.Context, match *model.Match) error {
	if match.ID == "" {
		match.ID = uuid.New().String()
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO matches (id, friend1, friend2, created_at) VALUES ($1, $2, $3, $4)`,
		match.ID, match.Friend1, match.Friend2, match.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMatch
		}
		return fmt.Errorf("マッチの作成に失敗しました: %w", err)
	}

	return nil
}

// isUniqueViolation はエラーがPostgreSQLの一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return false
}

// compile-time interface check
var _ MatchRepository = (*PostgresMatchRepo)(nil)
