// Package database はストアへの接続とスキーマ管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtySchema は前回のマイグレーションが途中で失敗しスキーマが不整合な状態を表す。
var ErrDirtySchema = errors.New("schema is dirty")

// SchemaVersion はfriends/matchesスキーマの適用状態。
// Versionが0の場合はマイグレーション未適用。
type SchemaVersion struct {
	Version uint
	Dirty   bool
}

// NewMigrator は埋め込みSQLを読むmigrateインスタンスを生成する。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// currentVersion は適用済みのバージョンを返す。未適用なら0。
func currentVersion(m *migrate.Migrate) (SchemaVersion, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{}, nil
	}
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return SchemaVersion{Version: v, Dirty: dirty}, nil
}

// RunMigrations は未適用のマイグレーションを適用し、適用後のバージョンを返す。
// すでに最新の場合はエラーなしで返る。スキーマがdirtyの場合は適用せずErrDirtySchemaを返す。
func RunMigrations(databaseURL string) (SchemaVersion, error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return SchemaVersion{}, err
	}
	defer m.Close()

	before, err := currentVersion(m)
	if err != nil {
		return SchemaVersion{}, err
	}
	if before.Dirty {
		return before, fmt.Errorf("%w: version %d must be fixed manually before migrating", ErrDirtySchema, before.Version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return SchemaVersion{}, fmt.Errorf("failed to run migrations: %w", err)
	}

	after, err := currentVersion(m)
	if err != nil {
		return SchemaVersion{}, err
	}

	if after.Version == before.Version {
		slog.Info("schema is up to date", slog.Uint64("version", uint64(after.Version)))
	} else {
		slog.Info("schema migrated",
			slog.Uint64("from", uint64(before.Version)),
			slog.Uint64("to", uint64(after.Version)),
		)
	}
	return after, nil
}
