package template

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

// DefaultCollection is the collection templates are stored in.
const DefaultCollection = "templates"

// MongoStore keeps templates in a MongoDB collection with a unique index on
// the name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// MongoOptions configures NewMongoStore.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string // DefaultCollection when empty
}

// NewMongoStore connects to MongoDB, checks the connection and ensures the
// indexes exist.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := NewMongoStoreFromCollection(client.Database(opts.Database).Collection(opts.Collection))
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromCollection wraps an existing collection. Close does not
// disconnect the client in that case.
func NewMongoStoreFromCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{
		coll: coll,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the unique name index and the listing index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "type", Value: 1}, {Key: "createdAt", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create template indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]*Template, error) {
	return s.find(ctx, bson.M{"isActive": true})
}

func (s *MongoStore) ListByType(ctx context.Context, typ Type) ([]*Template, error) {
	return s.find(ctx, bson.M{"isActive": true, "type": typ})
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Template, error) {
	return s.findOne(ctx, bson.M{"_id": id}, id)
}

func (s *MongoStore) GetByName(ctx context.Context, name string) (*Template, error) {
	return s.findOne(ctx, bson.M{"name": name}, name)
}

func (s *MongoStore) Create(ctx context.Context, t *Template) (*Template, error) {
	in := clone(t)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	in.ID = uuid.NewString()
	in.CreatedAt = now
	in.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, in); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, nameTaken(in.Name)
		}
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return in, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, t *Template) (*Template, error) {
	in := clone(t)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ID = id
	in.CreatedAt = existing.CreatedAt
	in.UpdatedAt = s.now()

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id}, in)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, nameTaken(in.Name)
		}
		return nil, fmt.Errorf("update template: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, notFound(id)
	}
	return in, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": s.now()}},
	)
	if err != nil {
		return fmt.Errorf("deactivate template: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client if the store created it.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]*Template, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find templates: %w", err)
	}
	out := []*Template{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	return out, nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, ref string) (*Template, error) {
	var t Template
	if err := s.coll.FindOne(ctx, filter).Decode(&t); err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(ref)
		}
		return nil, fmt.Errorf("find template: %w", err)
	}
	return &t, nil
}
