package store

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/netgraph/pkg/cache"
	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

// DefaultMongoDatabase is used when MongoConfig.Database is empty.
const DefaultMongoDatabase = "netgraph"

// Collection names.
const (
	mongoDesigns  = "designs"
	mongoVertices = "vertices"
	mongoEdges    = "edges"
)

// MongoConfig holds the connection settings of a [MongoStore].
type MongoConfig struct {
	URI       string // mongodb:// or mongodb+srv://
	Database  string
	BatchSize int
	Logger    *log.Logger
}

// MongoStore writes graphs into MongoDB.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    MongoConfig
	logger *log.Logger
}

type mongoVertex struct {
	Design string  `bson:"design"`
	LoadID string  `bson:"load_id"`
	Index  int     `bson:"index"`
	Name   string  `bson:"name"`
	Kind   string  `bson:"kind"`
	Color  string  `bson:"color"`
	Width  float64 `bson:"width"`
	Height float64 `bson:"height"`
}

type mongoEdge struct {
	Design string `bson:"design"`
	LoadID string `bson:"load_id"`
	Seq    int    `bson:"seq"`
	From   string `bson:"from"`
	To     string `bson:"to"`
	Net    string `bson:"net"`
}

type mongoDesign struct {
	Name     string    `bson:"_id"`
	LoadID   string    `bson:"load_id"`
	Directed bool      `bson:"directed"`
	Vertices int       `bson:"vertices"`
	Edges    int       `bson:"edges"`
	LoadedAt time.Time `bson:"loaded_at"`
}

// NewMongoStore connects to MongoDB and ensures the per-design indexes.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if err := errors.ValidateURI(cfg.URI, "mongodb", "mongodb+srv"); err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		return cache.Retryable(client.Ping(ctx, readpref.Primary()))
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongodb")
	}

	s := &MongoStore{client: client, db: client.Database(cfg.Database), cfg: cfg, logger: cfg.Logger}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(mongoVertices).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "design", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create vertex index: %w", err)
	}
	_, err = s.db.Collection(mongoEdges).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "design", Value: 1}, {Key: "from", Value: 1}}},
		{Keys: bson.D{{Key: "design", Value: 1}, {Key: "to", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create edge indexes: %w", err)
	}
	return nil
}

// Save implements [Store]. The design's documents are deleted and the new
// ones inserted in batches; a designs document records the load.
func (s *MongoStore) Save(ctx context.Context, design string, g *graph.Graph) (SaveInfo, error) {
	if err := checkDesign(design); err != nil {
		return SaveInfo{}, err
	}
	start := time.Now()
	info := SaveInfo{LoadID: newLoadID(), Design: design, Vertices: g.VertexCount(), Edges: g.EdgeCount()}

	filter := bson.M{"design": design}
	for _, name := range []string{mongoEdges, mongoVertices} {
		if _, err := s.db.Collection(name).DeleteMany(ctx, filter); err != nil {
			return SaveInfo{}, fmt.Errorf("clear %s: %w", name, err)
		}
	}

	vertices, edges := mongoDocuments(design, info.LoadID, g)
	if err := s.insert(ctx, mongoVertices, vertices); err != nil {
		return SaveInfo{}, err
	}
	if err := s.insert(ctx, mongoEdges, edges); err != nil {
		return SaveInfo{}, err
	}

	doc := mongoDesign{
		Name:     design,
		LoadID:   info.LoadID,
		Directed: g.Directed(),
		Vertices: info.Vertices,
		Edges:    info.Edges,
		LoadedAt: start.UTC(),
	}
	_, err := s.db.Collection(mongoDesigns).ReplaceOne(ctx, bson.M{"_id": design}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return SaveInfo{}, fmt.Errorf("record design: %w", err)
	}

	info.Duration = time.Since(start)
	s.logger.Debug("saved graph to mongodb", "design", design, "load", info.LoadID,
		"vertices", info.Vertices, "edges", info.Edges, "duration", info.Duration)
	return info, nil
}

func (s *MongoStore) insert(ctx context.Context, collection string, docs []any) error {
	coll := s.db.Collection(collection)
	for _, batch := range batches(docs, s.cfg.BatchSize) {
		if _, err := coll.InsertMany(ctx, batch); err != nil {
			return fmt.Errorf("insert %s: %w", collection, err)
		}
	}
	return nil
}

func mongoDocuments(design, load string, g *graph.Graph) (vertices, edges []any) {
	for _, r := range vertexRows(g) {
		vertices = append(vertices, mongoVertex{
			Design: design,
			LoadID: load,
			Index:  r.Index,
			Name:   r.Name,
			Kind:   r.Kind,
			Color:  r.Color,
			Width:  r.Width,
			Height: r.Height,
		})
	}
	for _, r := range edgeRows(g) {
		edges = append(edges, mongoEdge{Design: design, LoadID: load, Seq: r.Seq, From: r.From, To: r.To, Net: r.Net})
	}
	return vertices, edges
}

// Close implements [Store].
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
