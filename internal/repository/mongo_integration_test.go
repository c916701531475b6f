package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hitoshi/hostelmatch/internal/database"
)

// setupMongo はTEST_MONGODB_URIのデータベースを空にしてインデックスを作成する。
// 未設定の場合はスキップする。
func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI が未設定のためスキップ")
	}

	ctx := context.Background()
	store, err := database.ConnectMongo(ctx, uri, 5*time.Second)
	if err != nil {
		t.Skipf("テスト用MongoDBに接続できません（スキップ）: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Database.Drop(ctx); err != nil {
		t.Fatalf("クリーンアップに失敗: %v", err)
	}
	if err := EnsureMongoIndexes(ctx, store.Database); err != nil {
		t.Fatalf("インデックス作成に失敗: %v", err)
	}
	return store.Database
}

func TestMongoRepos_Contract(t *testing.T) {
	db := setupMongo(t)
	runStoreContract(t, NewMongoFriendRepo(db), NewMongoMatchRepo(db))
}

// TestMongoMatchRepo_LegacyDocument は正規化キーを持たない既存ドキュメントも重複として検出されることを検証する。
func TestMongoMatchRepo_LegacyDocument(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()

	_, err := db.Collection(MatchesCollection).InsertOne(ctx, bson.M{"friend1": "Alice", "friend2": "Bob"})
	if err != nil {
		t.Fatalf("failed to insert legacy document: %v", err)
	}

	repo := NewMongoMatchRepo(db)
	m, err := repo.FindByPair(ctx, "Bob", "Alice")
	if err != nil {
		t.Fatalf("FindByPair returned error: %v", err)
	}
	if m == nil {
		t.Fatal("legacy document should be found")
	}
	if m.CreatedAt.IsZero() {
		t.Error("CreatedAt should fall back to ObjectID timestamp")
	}
}
