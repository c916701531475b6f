package vote

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/hostelmatch/internal/metrics"
	"github.com/hitoshi/hostelmatch/internal/model"
	"github.com/hitoshi/hostelmatch/internal/repository"
)

// --- モック ---

type mockFriendRepo struct {
	listNamesFn func(ctx context.Context) ([]string, error)
}

func (m *mockFriendRepo) ListNames(ctx context.Context) ([]string, error) {
	return m.listNamesFn(ctx)
}
func (m *mockFriendRepo) Create(ctx context.Context, friend *model.Friend) error {
	return nil
}

type mockMatchRepo struct {
	listFn       func(ctx context.Context) ([]model.Match, error)
	findByPairFn func(ctx context.Context, a, b string) (*model.Match, error)
	createFn     func(ctx context.Context, match *model.Match) error
}

func (m *mockMatchRepo) List(ctx context.Context) ([]model.Match, error) {
	return m.listFn(ctx)
}
func (m *mockMatchRepo) FindByPair(ctx context.Context, a, b string) (*model.Match, error) {
	return m.findByPairFn(ctx, a, b)
}
func (m *mockMatchRepo) Create(ctx context.Context, match *model.Match) error {
	return m.createFn(ctx, match)
}

type recordingMetrics struct {
	mu          sync.Mutex
	votes       []string
	storeErrors []string
}

func (r *recordingMetrics) RecordVote(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.votes = append(r.votes, outcome)
}
func (r *recordingMetrics) RecordStoreError(operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storeErrors = append(r.storeErrors, operation)
}
func (r *recordingMetrics) RecordHTTPStatus(int) {}

func (r *recordingMetrics) RecordRequestLatency(time.Duration) {}

func newMemoryService(t *testing.T, friends ...string) (*Service, *recordingMetrics) {
	t.Helper()
	friendRepo := repository.NewMemoryFriendRepo()
	for _, name := range friends {
		if err := friendRepo.Create(context.Background(), &model.Friend{Name: name}); err != nil {
			t.Fatalf("failed to seed friend: %v", err)
		}
	}
	rec := &recordingMetrics{}
	return NewService(friendRepo, repository.NewMemoryMatchRepo(), rec, time.Second), rec
}

func assertAPIError(t *testing.T, err error, wantCode, wantMsg string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("Code = %q, want %q", apiErr.Code, wantCode)
	}
	if apiErr.Message != wantMsg {
		t.Errorf("Message = %q, want %q", apiErr.Message, wantMsg)
	}
}

// --- テスト ---

// TestSubmitVote_Scenario はAlice/Bob/Caraのシナリオを順に実行する。
func TestSubmitVote_Scenario(t *testing.T) {
	svc, rec := newMemoryService(t, "Alice", "Bob", "Cara")
	ctx := context.Background()

	match, err := svc.SubmitVote(ctx, "Alice", "Bob")
	if err != nil {
		t.Fatalf("Alice->Bob should be accepted: %v", err)
	}
	if match.Friend1 != "Alice" || match.Friend2 != "Bob" {
		t.Errorf("match = (%q, %q), want (Alice, Bob)", match.Friend1, match.Friend2)
	}
	if match.ID == "" {
		t.Error("match ID should be assigned by store")
	}

	_, err = svc.SubmitVote(ctx, "Bob", "Alice")
	assertAPIError(t, err, model.ErrCodeDuplicateMatch, "This match already exists.")

	_, err = svc.SubmitVote(ctx, "Cara", "Cara")
	assertAPIError(t, err, model.ErrCodeSelfVote, "You cannot vote for yourself as a roommate.")

	match, err = svc.SubmitVote(ctx, "Cara", "Alice")
	if err != nil {
		t.Fatalf("Cara->Alice should be accepted: %v", err)
	}
	if match.Friend1 != "Cara" || match.Friend2 != "Alice" {
		t.Errorf("match = (%q, %q), want (Cara, Alice)", match.Friend1, match.Friend2)
	}

	matches, err := svc.ListMatches(ctx)
	if err != nil {
		t.Fatalf("ListMatches returned error: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("len(matches) = %d, want 2", len(matches))
	}

	want := []string{metrics.VoteAccepted, metrics.VoteDuplicate, metrics.VoteSelfVote, metrics.VoteAccepted}
	if !reflect.DeepEqual(rec.votes, want) {
		t.Errorf("recorded votes = %v, want %v", rec.votes, want)
	}
}

// TestSubmitVote_SelfVoteSkipsStore は自己投票がストアに問い合わせずに拒否されることを検証する。
func TestSubmitVote_SelfVoteSkipsStore(t *testing.T) {
	repo := &mockMatchRepo{
		findByPairFn: func(ctx context.Context, a, b string) (*model.Match, error) {
			t.Fatal("FindByPair should not be called for self vote")
			return nil, nil
		},
		createFn: func(ctx context.Context, match *model.Match) error {
			t.Fatal("Create should not be called for self vote")
			return nil
		},
	}
	svc := NewService(&mockFriendRepo{}, repo, nil, 0)

	_, err := svc.SubmitVote(context.Background(), "Alice", "Alice")
	assertAPIError(t, err, model.ErrCodeSelfVote, "You cannot vote for yourself as a roommate.")
}

// TestSubmitVote_UniqueViolationIsDuplicate は確認後に並行投票が先に作成した場合も重複として扱うことを検証する。
func TestSubmitVote_UniqueViolationIsDuplicate(t *testing.T) {
	repo := &mockMatchRepo{
		findByPairFn: func(ctx context.Context, a, b string) (*model.Match, error) {
			return nil, nil
		},
		createFn: func(ctx context.Context, match *model.Match) error {
			return repository.ErrDuplicateMatch
		},
	}
	rec := &recordingMetrics{}
	svc := NewService(&mockFriendRepo{}, repo, rec, 0)

	_, err := svc.SubmitVote(context.Background(), "Alice", "Bob")
	assertAPIError(t, err, model.ErrCodeDuplicateMatch, "This match already exists.")

	if len(rec.storeErrors) != 0 {
		t.Errorf("store errors = %v, want none", rec.storeErrors)
	}
	if !reflect.DeepEqual(rec.votes, []string{metrics.VoteDuplicate}) {
		t.Errorf("votes = %v, want [duplicate]", rec.votes)
	}
}

func TestSubmitVote_StoreErrors(t *testing.T) {
	storeErr := errors.New("connection refused")

	tests := []struct {
		name      string
		repo      *mockMatchRepo
		wantOpErr string
	}{
		{
			name: "FindByPair失敗",
			repo: &mockMatchRepo{
				findByPairFn: func(ctx context.Context, a, b string) (*model.Match, error) {
					return nil, storeErr
				},
			},
			wantOpErr: "find_match",
		},
		{
			name: "Create失敗",
			repo: &mockMatchRepo{
				findByPairFn: func(ctx context.Context, a, b string) (*model.Match, error) {
					return nil, nil
				},
				createFn: func(ctx context.Context, match *model.Match) error {
					return storeErr
				},
			},
			wantOpErr: "create_match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingMetrics{}
			svc := NewService(&mockFriendRepo{}, tt.repo, rec, 0)

			_, err := svc.SubmitVote(context.Background(), "Alice", "Bob")
			if !errors.Is(err, storeErr) {
				t.Fatalf("error should wrap store error, got %v", err)
			}
			var apiErr *model.APIError
			if errors.As(err, &apiErr) {
				t.Errorf("store failure should not be an APIError: %v", apiErr)
			}
			if !reflect.DeepEqual(rec.storeErrors, []string{tt.wantOpErr}) {
				t.Errorf("store errors = %v, want [%s]", rec.storeErrors, tt.wantOpErr)
			}
			if !reflect.DeepEqual(rec.votes, []string{metrics.VoteError}) {
				t.Errorf("votes = %v, want [error]", rec.votes)
			}
		})
	}
}

// TestSubmitVote_ExistingFromStoreRejected はストアが返した既存マッチで重複判定することを検証する。
func TestSubmitVote_ExistingFromStoreRejected(t *testing.T) {
	var gotA, gotB string
	repo := &mockMatchRepo{
		findByPairFn: func(ctx context.Context, a, b string) (*model.Match, error) {
			gotA, gotB = a, b
			return &model.Match{ID: "m1", Friend1: "Bob", Friend2: "Alice"}, nil
		},
		createFn: func(ctx context.Context, match *model.Match) error {
			t.Fatal("Create should not be called for duplicate")
			return nil
		},
	}
	svc := NewService(&mockFriendRepo{}, repo, nil, 0)

	_, err := svc.SubmitVote(context.Background(), "Alice", "Bob")
	assertAPIError(t, err, model.ErrCodeDuplicateMatch, "This match already exists.")
	if gotA != "Alice" || gotB != "Bob" {
		t.Errorf("FindByPair called with (%q, %q), want (Alice, Bob)", gotA, gotB)
	}
}

// TestSubmitVote_StoreCallHasDeadline はストア呼び出しにタイムアウトが設定されることを検証する。
func TestSubmitVote_StoreCallHasDeadline(t *testing.T) {
	repo := &mockMatchRepo{
		findByPairFn: func(ctx context.Context, a, b string) (*model.Match, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("FindByPair context should have a deadline")
			}
			return nil, nil
		},
		createFn: func(ctx context.Context, match *model.Match) error {
			deadline, ok := ctx.Deadline()
			if !ok {
				t.Error("Create context should have a deadline")
			} else if time.Until(deadline) > 2*time.Second {
				t.Errorf("deadline too far: %v", time.Until(deadline))
			}
			return nil
		},
	}
	svc := NewService(&mockFriendRepo{}, repo, nil, 2*time.Second)

	if _, err := svc.SubmitVote(context.Background(), "Alice", "Bob"); err != nil {
		t.Fatalf("SubmitVote returned error: %v", err)
	}
}

// TestSubmitVote_ConcurrentSamePair は同じペアへの並行投票で1件だけ受理されることを検証する。
func TestSubmitVote_ConcurrentSamePair(t *testing.T) {
	svc, _ := newMemoryService(t, "Alice", "Bob")

	const n = 16
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			voter, roommate := "Alice", "Bob"
			if i%2 == 1 {
				voter, roommate = roommate, voter
			}
			_, err := svc.SubmitVote(context.Background(), voter, roommate)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	accepted := 0
	for err := range results {
		if err == nil {
			accepted++
			continue
		}
		assertAPIError(t, err, model.ErrCodeDuplicateMatch, "This match already exists.")
	}
	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}
}

func TestListFriends(t *testing.T) {
	svc, _ := newMemoryService(t, "Alice", "Bob", "Cara")

	first, err := svc.ListFriends(context.Background())
	if err != nil {
		t.Fatalf("ListFriends returned error: %v", err)
	}
	second, err := svc.ListFriends(context.Background())
	if err != nil {
		t.Fatalf("ListFriends returned error: %v", err)
	}

	want := []string{"Alice", "Bob", "Cara"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("ListFriends = %v, want %v", first, want)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("listing twice without writes differs: %v vs %v", first, second)
	}
}

func TestListFriends_StoreError(t *testing.T) {
	storeErr := errors.New("unreachable")
	rec := &recordingMetrics{}
	svc := NewService(&mockFriendRepo{
		listNamesFn: func(ctx context.Context) ([]string, error) {
			return nil, storeErr
		},
	}, &mockMatchRepo{}, rec, 0)

	_, err := svc.ListFriends(context.Background())
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if !reflect.DeepEqual(rec.storeErrors, []string{"list_friends"}) {
		t.Errorf("store errors = %v, want [list_friends]", rec.storeErrors)
	}
}

func TestListMatches_StableWithoutWrites(t *testing.T) {
	svc, _ := newMemoryService(t, "Alice", "Bob", "Cara")
	ctx := context.Background()

	for _, pair := range [][2]string{{"Alice", "Bob"}, {"Cara", "Alice"}} {
		if _, err := svc.SubmitVote(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("SubmitVote(%v) returned error: %v", pair, err)
		}
	}

	first, err := svc.ListMatches(ctx)
	if err != nil {
		t.Fatalf("ListMatches returned error: %v", err)
	}
	second, err := svc.ListMatches(ctx)
	if err != nil {
		t.Fatalf("ListMatches returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("listing twice without writes differs: %v vs %v", first, second)
	}
}

func TestListMatches_StoreError(t *testing.T) {
	storeErr := errors.New("timeout")
	rec := &recordingMetrics{}
	svc := NewService(&mockFriendRepo{}, &mockMatchRepo{
		listFn: func(ctx context.Context) ([]model.Match, error) {
			return nil, storeErr
		},
	}, rec, 0)

	_, err := svc.ListMatches(context.Background())
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if !reflect.DeepEqual(rec.storeErrors, []string{"list_matches"}) {
		t.Errorf("store errors = %v, want [list_matches]", rec.storeErrors)
	}
}
