package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/hitoshi/hostelmatch/internal/model"
)

// runStoreContract は全バックエンド共通の振る舞いを検証する。
// friends/matches は空の状態で渡すこと。
func runStoreContract(t *testing.T, friends FriendRepository, matches MatchRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("空の一覧は空スライス", func(t *testing.T) {
		names, err := friends.ListNames(ctx)
		if err != nil {
			t.Fatalf("ListNames returned error: %v", err)
		}
		if names == nil || len(names) != 0 {
			t.Errorf("ListNames = %#v, want empty non-nil slice", names)
		}

		list, err := matches.List(ctx)
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if list == nil || len(list) != 0 {
			t.Errorf("List = %#v, want empty non-nil slice", list)
		}
	})

	t.Run("友人は登録順", func(t *testing.T) {
		for _, name := range []string{"Cara", "Alice", "Bob"} {
			f := &model.Friend{Name: name}
			if err := friends.Create(ctx, f); err != nil {
				t.Fatalf("Create(%s) returned error: %v", name, err)
			}
			if f.ID == "" {
				t.Errorf("Create(%s) should assign ID", name)
			}
		}
		names, err := friends.ListNames(ctx)
		if err != nil {
			t.Fatalf("ListNames returned error: %v", err)
		}
		if want := []string{"Cara", "Alice", "Bob"}; !reflect.DeepEqual(names, want) {
			t.Errorf("ListNames = %v, want %v", names, want)
		}
	})

	t.Run("逆順ペアは一意制約違反", func(t *testing.T) {
		first := &model.Match{Friend1: "Alice", Friend2: "Bob"}
		if err := matches.Create(ctx, first); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if first.ID == "" || first.CreatedAt.IsZero() {
			t.Errorf("Create should assign ID and CreatedAt: %+v", first)
		}

		err := matches.Create(ctx, &model.Match{Friend1: "Bob", Friend2: "Alice"})
		if !errors.Is(err, ErrDuplicateMatch) {
			t.Errorf("reversed pair error = %v, want ErrDuplicateMatch", err)
		}
	})

	t.Run("FindByPairは順序を問わない", func(t *testing.T) {
		for _, pair := range [][2]string{{"Alice", "Bob"}, {"Bob", "Alice"}} {
			m, err := matches.FindByPair(ctx, pair[0], pair[1])
			if err != nil {
				t.Fatalf("FindByPair returned error: %v", err)
			}
			if m == nil || m.Friend1 != "Alice" || m.Friend2 != "Bob" {
				t.Errorf("FindByPair(%v) = %+v, want Alice/Bob", pair, m)
			}
		}

		m, err := matches.FindByPair(ctx, "Alice", "Cara")
		if err != nil {
			t.Fatalf("FindByPair returned error: %v", err)
		}
		if m != nil {
			t.Errorf("FindByPair(Alice, Cara) = %+v, want nil", m)
		}
	})

	t.Run("マッチは作成順で投票時の順序を保持", func(t *testing.T) {
		if err := matches.Create(ctx, &model.Match{Friend1: "Cara", Friend2: "Alice"}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		list, err := matches.List(ctx)
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("len(List) = %d, want 2", len(list))
		}
		if list[0].Friend1 != "Alice" || list[1].Friend1 != "Cara" || list[1].Friend2 != "Alice" {
			t.Errorf("List = %+v", list)
		}
	})
}
