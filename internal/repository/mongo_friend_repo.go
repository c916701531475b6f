package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/hostelmatch/internal/model"
)

// FriendsCollection は友人ドキュメントのコレクション名。
const FriendsCollection = "friends"

// friendDocument はfriendsコレクションのドキュメント。
type friendDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	CreatedAt time.Time          `bson:"createdAt,omitempty"`
}

// MongoFriendRepo はMongoDBを使用した友人リポジトリ。
type MongoFriendRepo struct {
	coll *mongo.Collection
}

// NewMongoFriendRepo はMongoFriendRepoを生成する。
func NewMongoFriendRepo(db *mongo.Database) *MongoFriendRepo {
	return &MongoFriendRepo{coll: db.Collection(FriendsCollection)}
}

// ListNames は登録済みの友人名を登録順（_id順）に返す。
func (r *MongoFriendRepo) ListNames(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "name", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("友人一覧の取得に失敗しました: %w", err)
	}

	var docs []friendDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("友人データのデコードに失敗しました: %w", err)
	}

	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	return names, nil
}

// Create は友人を作成する。
func (r *MongoFriendRepo) Create(ctx context.Context, friend *model.Friend) error {
	oid, err := objectIDFor(friend.ID)
	if err != nil {
		return err
	}
	if friend.CreatedAt.IsZero() {
		friend.CreatedAt = time.Now().UTC()
	}

	_, err = r.coll.InsertOne(ctx, friendDocument{
		ID:        oid,
		Name:      friend.Name,
		CreatedAt: friend.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("友人の作成に失敗しました: %w", err)
	}

	friend.ID = oid.Hex()
	return nil
}

// objectIDFor はモデルのIDをObjectIDに変換する。空の場合は新規採番する。
func objectIDFor(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NewObjectID(), nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("不正なオブジェクトID %q: %w", id, err)
	}
	return oid, nil
}

// compile-time interface check
var _ FriendRepository = (*MongoFriendRepo)(nil)
