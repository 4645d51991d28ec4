package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/errors"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "organigram"
	DefaultMongoCollection = "organigrams"
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps charts in a MongoDB collection, one document per chart
// keyed by the chart id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo store requires a URI")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) List(ctx context.Context) (charts []chart.Chart, err error) {
	defer func(start time.Time) { observe(ctx, BackendMongo, "list", start, err) }(time.Now())

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list charts")
	}
	charts = []chart.Chart{}
	if err := cur.All(ctx, &charts); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode charts")
	}
	for i := range charts {
		charts[i] = charts[i].Clone()
	}
	sortCharts(charts)
	return charts, nil
}

func (s *MongoStore) Get(ctx context.Context, id chart.ID) (c chart.Chart, err error) {
	defer func(start time.Time) { observe(ctx, BackendMongo, "get", start, err) }(time.Now())

	err = s.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return chart.Chart{}, notFound(id)
	}
	if err != nil {
		return chart.Chart{}, errors.Wrap(errors.ErrCodeStore, err, "get chart %s", id)
	}
	return c.Clone(), nil
}

func (s *MongoStore) Put(ctx context.Context, c chart.Chart) (err error) {
	defer func(start time.Time) { observe(ctx, BackendMongo, "put", start, err) }(time.Now())
	if err := validateID(c.ID); err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": c.ID.String()}, c.Clone(), opts); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "put chart %s", c.ID)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id chart.ID) (err error) {
	defer func(start time.Time) { observe(ctx, BackendMongo, "delete", start, err) }(time.Now())

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete chart %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// ReplaceAll deletes every document and inserts charts. The two steps are
// not atomic.
func (s *MongoStore) ReplaceAll(ctx context.Context, charts []chart.Chart) (err error) {
	defer func(start time.Time) { observe(ctx, BackendMongo, "replace_all", start, err) }(time.Now())

	docs := make([]any, 0, len(charts))
	for _, c := range charts {
		if err := validateID(c.ID); err != nil {
			return err
		}
		docs = append(docs, c.Clone())
	}
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "clear charts")
	}
	if len(docs) == 0 {
		return nil
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "insert charts")
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
