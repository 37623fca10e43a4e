package record

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Default collection names.
const (
	DefaultCollection          = "photocards"
	DefaultSelectionCollection = "artwork_selections"
)

// MongoStore keeps cards and selections in two MongoDB collections.
type MongoStore struct {
	client     *mongo.Client
	cards      *mongo.Collection
	selections *mongo.Collection
	now        func() time.Time
}

// MongoOptions configures NewMongoStore.
type MongoOptions struct {
	URI                 string
	Database            string
	Collection          string // DefaultCollection when empty
	SelectionCollection string // DefaultSelectionCollection when empty
}

// NewMongoStore connects to MongoDB, checks the connection and ensures the
// indexes exist.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.SelectionCollection == "" {
		opts.SelectionCollection = DefaultSelectionCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(opts.Database)
	s := NewMongoStoreFromCollections(db.Collection(opts.Collection), db.Collection(opts.SelectionCollection))
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromCollections wraps existing collections. Close does not
// disconnect the client in that case.
func NewMongoStoreFromCollections(cards, selections *mongo.Collection) *MongoStore {
	return &MongoStore{
		cards:      cards,
		selections: selections,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the lookup indexes of both collections.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.cards.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "artworkId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "artworkId", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create photocard indexes: %w", err)
	}
	_, err = s.selections.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "artworkId", Value: 1}, {Key: "selectedAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create selection indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, p *Photocard) (*Photocard, error) {
	in := clone(p)
	if err := validate(in); err != nil {
		return nil, err
	}
	in.ID = uuid.NewString()
	in.CreatedAt = s.now()

	if _, err := s.cards.InsertOne(ctx, in); err != nil {
		return nil, fmt.Errorf("insert photocard: %w", err)
	}
	return in, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Photocard, error) {
	var p Photocard
	if err := s.cards.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("find photocard: %w", err)
	}
	return &p, nil
}

func (s *MongoStore) ListByArtwork(ctx context.Context, artworkID int64) ([]*Photocard, error) {
	return s.find(ctx, bson.M{"artworkId": artworkID}, 0)
}

func (s *MongoStore) ListByConversation(ctx context.Context, conversationID int64) ([]*Photocard, error) {
	return s.find(ctx, bson.M{"conversationId": conversationID}, 0)
}

func (s *MongoStore) Find(ctx context.Context, conversationID, artworkID int64) (*Photocard, error) {
	found, err := s.find(ctx, bson.M{"conversationId": conversationID, "artworkId": artworkID}, 1)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, notFoundFor(conversationID, artworkID)
	}
	return found[0], nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.cards.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete photocard: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) Select(ctx context.Context, sel *Selection) (*Selection, error) {
	in := *sel
	if err := validateSelection(&in); err != nil {
		return nil, err
	}
	in.ID = uuid.NewString()
	in.SelectedAt = s.now()

	if _, err := s.selections.InsertOne(ctx, &in); err != nil {
		return nil, fmt.Errorf("insert selection: %w", err)
	}
	return &in, nil
}

func (s *MongoStore) Selections(ctx context.Context, artworkID int64) ([]*Selection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "selectedAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.selections.Find(ctx, bson.M{"artworkId": artworkID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find selections: %w", err)
	}
	out := []*Selection{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode selections: %w", err)
	}
	return out, nil
}

// Close disconnects the client if the store created it.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) find(ctx context.Context, filter bson.M, limit int64) ([]*Photocard, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.cards.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find photocards: %w", err)
	}
	out := []*Photocard{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode photocards: %w", err)
	}
	return out, nil
}
