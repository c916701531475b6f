// Package friend は友人データの初期投入を提供する。
package friend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/hostelmatch/internal/model"
	"github.com/hitoshi/hostelmatch/internal/repository"
)

// Seeder は友人名の一覧をストアへ投入する。
// 既に登録済みの名前は作成しないため、同じ入力で何度実行しても結果は変わらない。
type Seeder struct {
	repo repository.FriendRepository
}

// NewSeeder はSeederの新しいインスタンスを生成する。
func NewSeeder(repo repository.FriendRepository) *Seeder {
	return &Seeder{repo: repo}
}

// Seed は names を登録し、新規に作成した件数を返す。
// 前後の空白は除去し、空の名前・入力内の重複・登録済みの名前はスキップする。
func (s *Seeder) Seed(ctx context.Context, names []string) (int, error) {
	existing, err := s.repo.ListNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list friends: %w", err)
	}

	seen := make(map[string]bool, len(existing)+len(names))
	for _, name := range existing {
		seen[name] = true
	}

	created := 0
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		if err := s.repo.Create(ctx, &model.Friend{Name: name}); err != nil {
			return created, fmt.Errorf("failed to create friend %q: %w", name, err)
		}
		slog.Info("friend created", slog.String("name", name))
		created++
	}

	return created, nil
}

// ParseNames はカンマ区切りの名前一覧を分割する。
// 空白の除去と空要素のスキップはSeedが行う。
func ParseNames(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	return strings.Split(csv, ",")
}
