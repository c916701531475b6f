package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultMongoDatabase は接続URLにデータベース名が含まれない場合に使用するデータベース名。
const DefaultMongoDatabase = "hostel-allocation"

// MongoStore はMongoDBクライアントと使用するデータベースを保持する。
type MongoStore struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectMongo はMongoDBに接続し、疎通確認まで行う。
// データベース名は接続URLのパスから決定する（例: "mongodb://localhost/hostel-allocation"）。
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*MongoStore, error) {
	dbName, err := MongoDatabaseName(uri)
	if err != nil {
		return nil, err
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	store := &MongoStore{
		Client:   client,
		Database: client.Database(dbName),
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := store.PingContext(pingCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return store, nil
}

// PingContext はプライマリへの疎通確認を行う。
func (s *MongoStore) PingContext(ctx context.Context) error {
	if err := s.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return nil
}

// Close はMongoDBとの接続を切断する。
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Client.Disconnect(ctx)
}

// MongoDatabaseName は接続URLのパスからデータベース名を取り出す。
// パスが空の場合はDefaultMongoDatabaseを返す。
func MongoDatabaseName(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid mongodb uri: %w", err)
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return DefaultMongoDatabase, nil
	}
	return name, nil
}
