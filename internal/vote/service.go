package vote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/hostelmatch/internal/metrics"
	"github.com/hitoshi/hostelmatch/internal/model"
	"github.com/hitoshi/hostelmatch/internal/repository"
)

// DefaultStoreTimeout はストア呼び出し1回あたりのデフォルトタイムアウト。
const DefaultStoreTimeout = 5 * time.Second

// Service は投票のサービス層。
// 友人・マッチの一覧取得と、投票の検証から記録までを担う。
type Service struct {
	friends repository.FriendRepository
	matches repository.MatchRepository
	metrics metrics.MetricsCollector
	timeout time.Duration
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。timeoutが0以下の場合はDefaultStoreTimeoutを使う。
func NewService(
	friends repository.FriendRepository,
	matches repository.MatchRepository,
	collector metrics.MetricsCollector,
	timeout time.Duration,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &Service{
		friends: friends,
		matches: matches,
		metrics: collector,
		timeout: timeout,
	}
}

// ListFriends は登録済みの友人名を返す。
func (s *Service) ListFriends(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names, err := s.friends.ListNames(ctx)
	if err != nil {
		s.metrics.RecordStoreError("list_friends")
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return names, nil
}

// ListMatches は成立済みのマッチを返す。
func (s *Service) ListMatches(ctx context.Context) ([]model.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	matches, err := s.matches.List(ctx)
	if err != nil {
		s.metrics.RecordStoreError("list_matches")
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// SubmitVote は投票を検証し、受理された場合はマッチを記録して返す。
// 拒否された場合は*model.APIErrorを返す。
func (s *Service) SubmitVote(ctx context.Context, voter, roommate string) (*model.Match, error) {
	// 自己投票はストアに問い合わせずに判定する
	if d := Validate(voter, roommate, nil); !d.Accepted() {
		return nil, s.reject(d)
	}

	findCtx, cancel := context.WithTimeout(ctx, s.timeout)
	existing, err := s.matches.FindByPair(findCtx, voter, roommate)
	cancel()
	if err != nil {
		s.metrics.RecordStoreError("find_match")
		s.metrics.RecordVote(metrics.VoteError)
		return nil, fmt.Errorf("failed to find match: %w", err)
	}

	var current []model.Match
	if existing != nil {
		current = append(current, *existing)
	}

	d := Validate(voter, roommate, current)
	if !d.Accepted() {
		return nil, s.reject(d)
	}

	match := d.Match
	createCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.matches.Create(createCtx, &match); err != nil {
		// 確認と作成の間に同じペアが作られた場合
		if errors.Is(err, repository.ErrDuplicateMatch) {
			return nil, s.reject(Decision{Outcome: Rejected, Reason: ReasonDuplicate})
		}
		s.metrics.RecordStoreError("create_match")
		s.metrics.RecordVote(metrics.VoteError)
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.metrics.RecordVote(metrics.VoteAccepted)
	return &match, nil
}

func (s *Service) reject(d Decision) error {
	if d.Reason == ReasonSelfVote {
		s.metrics.RecordVote(metrics.VoteSelfVote)
	} else {
		s.metrics.RecordVote(metrics.VoteDuplicate)
	}
	return d.Err()
}
