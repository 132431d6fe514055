package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/layout"
)

const mongoCollection = "layouts"

// Mongo stores layouts as BSON documents in a single collection, keyed by
// layout ID.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to the MongoDB deployment at uri and verifies the
// connection with a ping.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if database == "" {
		database = "dungen"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}
	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
	}, nil
}

func (s *Mongo) Save(ctx context.Context, l *layout.Layout) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": l.ID}, l, opts)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save layout %s", l.ID)
	}
	return nil
}

func (s *Mongo) Get(ctx context.Context, id string) (*layout.Layout, error) {
	var l layout.Layout
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load layout %s", id)
	}
	return &l, nil
}

func (s *Mongo) List(ctx context.Context) ([]Info, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "theme": 1, "seed": 1, "modules": 1, "created_at": 1}).
		SetSort(bson.M{"created_at": -1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list layouts")
	}
	defer cur.Close(ctx)

	var infos []Info
	for cur.Next(ctx) {
		var l layout.Layout
		if err := cur.Decode(&l); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout")
		}
		infos = append(infos, Info{
			ID:        l.ID,
			Theme:     l.Theme,
			Seed:      l.Seed,
			Modules:   len(l.Modules),
			CreatedAt: l.CreatedAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "iterate layouts")
	}
	return infos, nil
}

func (s *Mongo) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete layout %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *Mongo) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*Mongo)(nil)
