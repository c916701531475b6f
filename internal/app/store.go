package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/hostelmatch/internal/config"
	"github.com/hitoshi/hostelmatch/internal/database"
	"github.com/hitoshi/hostelmatch/internal/repository"
)

// store は設定に応じて選択したストアのリポジトリ群を保持する。
type store struct {
	friends repository.FriendRepository
	matches repository.MatchRepository
	health  repository.HealthChecker
	close   func() error
}

// openStore は接続URLのスキームに応じたストアに接続する。
// MongoDBの場合は同一ペアの一意インデックスも作成する。
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store {
	case config.StoreMongo:
		ms, err := database.ConnectMongo(ctx, cfg.DatabaseURL, cfg.StoreTimeout)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureMongoIndexes(ctx, ms.Database); err != nil {
			ms.Close()
			return nil, err
		}
		slog.Info("mongodb connection established", slog.String("database", ms.Database.Name()))
		return &store{
			friends: repository.NewMongoFriendRepo(ms.Database),
			matches: repository.NewMongoMatchRepo(ms.Database),
			health:  ms,
			close:   ms.Close,
		}, nil

	case config.StorePostgres:
		db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.StoreTimeout)
		if err != nil {
			return nil, err
		}
		slog.Info("database connection established")
		return &store{
			friends: repository.NewPostgresFriendRepo(db),
			matches: repository.NewPostgresMatchRepo(db),
			health:  db,
			close:   db.Close,
		}, nil

	case config.StoreMemory:
		slog.Warn("using in-memory store; data is lost on exit")
		return &store{
			friends: repository.NewMemoryFriendRepo(),
			matches: repository.NewMemoryMatchRepo(),
			health:  repository.NopHealthChecker{},
			close:   func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store: %q", cfg.Store)
	}
}
