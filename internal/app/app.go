// Package app はサブコマンドごとの起動処理と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/hostelmatch/internal/config"
	"github.com/hitoshi/hostelmatch/internal/database"
	"github.com/hitoshi/hostelmatch/internal/friend"
	"github.com/hitoshi/hostelmatch/internal/handler"
	"github.com/hitoshi/hostelmatch/internal/logger"
	"github.com/hitoshi/hostelmatch/internal/metrics"
	"github.com/hitoshi/hostelmatch/internal/middleware"
	"github.com/hitoshi/hostelmatch/internal/repository"
	"github.com/hitoshi/hostelmatch/internal/vote"
	"github.com/hitoshi/hostelmatch/internal/web"
)

const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから設定を読み込み、設定に従ってログを再構成する。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定に従ってログ形式とレベルを反映する
	logger.Configure(w, cfg.LogFormat, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port, err := config.ServerPortWithDotEnv(".env")
		if err != nil {
			return fmt.Errorf("healthcheck failed: %w", err)
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("store", string(cfg.Store)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg, commandArgs(args))
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", ":"+cfg.ServerPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return serve(ctx, cfg, ln)
}

// serve はストアに接続し、全依存関係をワイヤリングしてlnでHTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンして戻る。
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	// 1. ストア接続
	st, err := openStore(ctx, cfg)
	if err != nil {
		ln.Close()
		return err
	}
	defer st.close()

	// メモリストアは他プロセスから投入できないため、SEED_FRIENDSを起動時に投入する
	if cfg.Store == config.StoreMemory {
		if names := friend.ParseNames(cfg.SeedFriends); len(names) > 0 {
			if _, err := friend.NewSeeder(st.friends).Seed(ctx, names); err != nil {
				ln.Close()
				return fmt.Errorf("seed failed: %w", err)
			}
		}
	}

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 3. ドメインサービス
	voteService := vote.NewService(st.friends, st.matches, collector, cfg.StoreTimeout)

	// 4. ルーター
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitVote),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		HSTS:              cfg.IsProduction(),
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
		HealthChecker:     st.health,
		FriendService:     voteService,
		MatchService:      voteService,
		VoteService:       voteService,
		StaticFS:          resolveStaticFS(cfg),
	})

	// 5. HTTPサーバーの起動
	server := &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// resolveStaticFS は配信するクライアントを決定する。
// 本番モードでSTATIC_DIRにindex.htmlがあればそれを、なければ組み込みページを使う。
func resolveStaticFS(cfg *config.Config) fs.FS {
	if cfg.IsProduction() {
		dir := os.DirFS(cfg.StaticDir)
		if _, err := fs.Stat(dir, "index.html"); err == nil {
			slog.Info("serving client bundle", slog.String("dir", cfg.StaticDir))
			return dir
		}
		slog.Warn("client bundle not found, serving embedded page", slog.String("dir", cfg.StaticDir))
	}
	return web.FS()
}

// runMigrate はストアのスキーマとインデックスを適用する。
// PostgreSQLでは未適用のマイグレーションを順番に適用し、MongoDBでは一意インデックスを作成する。
func runMigrate(cfg *config.Config) error {
	switch cfg.Store {
	case config.StorePostgres:
		slog.Info("running database migrations")
		v, err := database.RunMigrations(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("postgres schema ready", slog.Uint64("version", uint64(v.Version)))

	case config.StoreMongo:
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		ms, err := database.ConnectMongo(ctx, cfg.DatabaseURL, cfg.StoreTimeout)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		defer ms.Close()

		if err := repository.EnsureMongoIndexes(ctx, ms.Database); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

	default:
		slog.Info("nothing to migrate", slog.String("store", string(cfg.Store)))
		return nil
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed は友人データを投入する。
// 引数がない場合はSEED_FRIENDSのカンマ区切りの名前を使う。
func runSeed(cfg *config.Config, names []string) error {
	if len(names) == 0 {
		names = friend.ParseNames(cfg.SeedFriends)
	}
	if len(names) == 0 {
		return errors.New("no friend names given: pass names as arguments or set SEED_FRIENDS")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	created, err := friend.NewSeeder(st.friends).Seed(ctx, names)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("seed completed", slog.Int("created", created), slog.Int("requested", len(names)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL は接続URLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
