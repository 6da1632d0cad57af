// Package atlas implements the search collaborator over a MongoDB Atlas
// vector index of stream descriptions.
package atlas

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/switchcast/switchcast/pkg/core/race"
)

const (
	databaseName   = "streams"
	collectionName = "streams"
	indexName      = "vector_index"
	numCandidates  = 150
	resultLimit    = 10
)

// Embedder turns a spoken request into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Searcher runs $vectorSearch queries against the stream collection and maps
// results, ordered by search score, into rank-ascending candidates.
type Searcher struct {
	client   *mongo.Client
	coll     *mongo.Collection
	embedder Embedder
}

// New connects to the cluster and binds the stream collection.
func New(uri string, embedder Embedder) (*Searcher, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	return &Searcher{
		client:   client,
		coll:     client.Database(databaseName).Collection(collectionName),
		embedder: embedder,
	}, nil
}

// Search embeds the query and returns the best-matching stream URLs.
func (s *Searcher) Search(ctx context.Context, query string) ([]race.Candidate, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: indexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: resultLimit},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "url", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []searchRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}

	return rowsToCandidates(rows), nil
}

type searchRow struct {
	URL string `bson:"url"`
}

// rowsToCandidates maps score-ordered rows into rank-ascending candidates.
// Rows without a URL are dropped without leaving holes in the rank sequence.
func rowsToCandidates(rows []searchRow) []race.Candidate {
	candidates := make([]race.Candidate, 0, len(rows))
	for _, row := range rows {
		if row.URL == "" {
			continue
		}
		candidates = append(candidates, race.Candidate{URL: row.URL, Rank: len(candidates)})
	}
	return candidates
}

// Close disconnects from the cluster.
func (s *Searcher) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
