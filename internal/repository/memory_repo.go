package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/hostelmatch/internal/model"
)

// MemoryFriendRepo はプロセス内メモリを使用した友人リポジトリ。
// ローカル開発およびテスト用。
type MemoryFriendRepo struct {
	mu      sync.RWMutex
	friends []model.Friend
}

// NewMemoryFriendRepo はMemoryFriendRepoを生成する。
func NewMemoryFriendRepo() *MemoryFriendRepo {
	return &MemoryFriendRepo{}
}

// ListNames は登録済みの友人名を登録順に返す。
func (r *MemoryFriendRepo) ListNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.friends))
	for _, f := range r.friends {
		names = append(names, f.Name)
	}
	return names, nil
}

// Create は友人を作成する。
func (r *MemoryFriendRepo) Create(ctx context.Context, friend *model.Friend) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if friend.ID == "" {
		friend.ID = uuid.New().String()
	}
	if friend.CreatedAt.IsZero() {
		friend.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.friends = append(r.friends, *friend)
	return nil
}

// pairKey は順序なしペアのマップキー。
type pairKey struct {
	low, high string
}

func newPairKey(a, b string) pairKey {
	low, high := model.PairKey(a, b)
	return pairKey{low: low, high: high}
}

// MemoryMatchRepo はプロセス内メモリを使用したマッチリポジトリ。
// 他のバックエンドと同様にペアの一意制約を持つ。
type MemoryMatchRepo struct {
	mu      sync.RWMutex
	matches []model.Match
	pairs   map[pairKey]struct{}
}

// NewMemoryMatchRepo はMemoryMatchRepoを生成する。
func NewMemoryMatchRepo() *MemoryMatchRepo {
	return &MemoryMatchRepo{
		pairs: make(map[pairKey]struct{}),
	}
}

// List は全マッチを作成順に返す。
func (r *MemoryMatchRepo) List(ctx context.Context) ([]model.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]model.Match, len(r.matches))
	copy(matches, r.matches)
	return matches, nil
}

// FindByPair は a, b の順序なしペアに一致するマッチを検索する。見つからない場合はnilを返す。
func (r *MemoryMatchRepo) FindByPair(ctx context.Context, a, b string) (*model.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.matches {
		if m.SamePair(a, b) {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

// Create はマッチを作成する。同一ペアが既に存在する場合はErrDuplicateMatchを返す。
func (r *MemoryMatchRepo) Create(ctx context.Context, match *model.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := newPairKey(match.Friend1, match.Friend2)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pairs[key]; exists {
		return ErrDuplicateMatch
	}

	if match.ID == "" {
		match.ID = uuid.New().String()
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now().UTC()
	}

	r.pairs[key] = struct{}{}
	r.matches = append(r.matches, *match)
	return nil
}

// NopHealthChecker は常に成功するHealthChecker。
// メモリストアのように疎通確認が不要なバックエンドで使用する。
type NopHealthChecker struct{}

// PingContext は常にnilを返す。
func (NopHealthChecker) PingContext(ctx context.Context) error {
	return nil
}

// compile-time interface check
var (
	_ FriendRepository = (*MemoryFriendRepo)(nil)
	_ MatchRepository  = (*MemoryMatchRepo)(nil)
	_ HealthChecker    = NopHealthChecker{}
)
