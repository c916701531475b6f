package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/hostelmatch/internal/model"
)

// MatchesCollection はマッチドキュメントのコレクション名。
const MatchesCollection = "matches"

// pairIndexName はペア一意インデックスの名前。
const pairIndexName = "unordered_pair_unique"

// matchDocument はmatchesコレクションのドキュメント。
// pairLow/pairHighは一意インデックス用の正規化キー。
// これらを持たない既存ドキュメントはインデックスの対象外となる。
type matchDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Friend1   string             `bson:"friend1"`
	Friend2   string             `bson:"friend2"`
	PairLow   string             `bson:"pairLow,omitempty"`
	PairHigh  string             `bson:"pairHigh,omitempty"`
	CreatedAt time.Time          `bson:"createdAt,omitempty"`
}

// toModel はドキュメントをモデルに変換する。
// createdAtを持たないドキュメントはObjectIDの生成時刻で補う。
func (d matchDocument) toModel() model.Match {
	createdAt := d.CreatedAt
	if createdAt.IsZero() && !d.ID.IsZero() {
		createdAt = d.ID.Timestamp().UTC()
	}
	return model.Match{
		ID:        d.ID.Hex(),
		Friend1:   d.Friend1,
		Friend2:   d.Friend2,
		CreatedAt: createdAt,
	}
}

// newMatchDocument はモデルから挿入用ドキュメントを生成する。
func newMatchDocument(oid primitive.ObjectID, m *model.Match) matchDocument {
	low, high := model.PairKey(m.Friend1, m.Friend2)
	return matchDocument{
		ID:        oid,
		Friend1:   m.Friend1,
		Friend2:   m.Friend2,
		PairLow:   low,
		PairHigh:  high,
		CreatedAt: m.CreatedAt,
	}
}

// pairFilter は a, b の順序なしペアに一致するフィルタを返す。
func pairFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"friend1": a, "friend2": b},
		bson.M{"friend1": b, "friend2": a},
	}}
}

// MongoMatchRepo はMongoDBを使用したマッチリポジトリ。
type MongoMatchRepo struct {
	coll *mongo.Collection
}

// NewMongoMatchRepo はMongoMatchRepoを生成する。
func NewMongoMatchRepo(db *mongo.Database) *MongoMatchRepo {
	return &MongoMatchRepo{coll: db.Collection(MatchesCollection)}
}

// List は全マッチを作成順（_id順）に返す。
func (r *MongoMatchRepo) List(ctx context.Context) ([]model.Match, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("マッチ一覧の取得に失敗しました: %w", err)
	}

	var docs []matchDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("マッチデータのデコードに失敗しました: %w", err)
	}

	matches := make([]model.Match, 0, len(docs))
	for _, d := range docs {
		matches = append(matches, d.toModel())
	}
	return matches, nil
}

// FindByPair は a, b の順序なしペアに一致するマッチを検索する。見つからない場合はnilを返す。
func (r *MongoMatchRepo) FindByPair(ctx context.Context, a, b string) (*model.Match, error) {
	var doc matchDocument
	err := r.coll.FindOne(ctx, pairFilter(a, b)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ペアによるマッチの検索に失敗しました: %w", err)
	}

	m := doc.toModel()
	return &m, nil
}

// Create はマッチを作成する。一意インデックス違反の場合はErrDuplicateMatchを返す。
func (r *MongoMatchRepo) Create(ctx context.Context, match *model.Match) error {
	oid, err := objectIDFor(match.ID)
	if err != nil {
		return err
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now().UTC()
	}

	if _, err := r.coll.InsertOne(ctx, newMatchDocument(oid, match)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateMatch
		}
		return fmt.Errorf("マッチの作成に失敗しました: %w", err)
	}

	match.ID = oid.Hex()
	return nil
}

// EnsureMongoIndexes はmatchesコレクションにペア一意インデックスを作成する。
// 既に存在する場合は何もしない。
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: "pairLow", Value: 1},
			{Key: "pairHigh", Value: 1},
		},
		Options: options.Index().
			SetName(pairIndexName).
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"pairLow": bson.M{"$exists": true}}),
	}

	if _, err := db.Collection(MatchesCollection).Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("ペアの一意インデックスの作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ MatchRepository = (*MongoMatchRepo)(nil)
