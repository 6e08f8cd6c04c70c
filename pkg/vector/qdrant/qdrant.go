// Package qdrant implements the vector Driver against a Qdrant server.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/vector"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "corelens_dictionary"

// Config holds connection settings for the Qdrant driver.
type Config struct {
	Host       string
	Port       int
	Collection string
}

// Driver stores dictionary embeddings in a Qdrant collection. The collection
// is created lazily on the first Add, sized to the incoming embeddings.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

// NewDriver connects to Qdrant at the configured host and port.
func NewDriver(cfg Config, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	return &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

func (d *Driver) ensureCollection(ctx context.Context, dimension int) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", vector.ErrConnection, err)
	}
	if exists {
		return nil
	}

	err = d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %s: %v", vector.ErrConnection, d.collection, err)
	}

	d.logger.Info("created qdrant collection",
		zap.String("collection", d.collection),
		zap.Int("dimension", dimension),
	)

	return nil
}

// Add upserts documents into the collection.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := d.ensureCollection(ctx, len(docs[0].Embedding)); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"dataset_id": doc.DatasetID,
			}),
		})
	}

	wait := true
	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting %d points: %v", vector.ErrConnection, len(points), err)
	}

	return nil
}

// Query returns the topK nearest documents, optionally filtered by dataset.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, datasetID string) ([]vector.QueryResult, error) {
	limit := uint64(topK)
	query := &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if datasetID != "" {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("dataset_id", datasetID),
			},
		}
	}

	points, err := d.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying collection %s: %v", vector.ErrConnection, d.collection, err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, point := range points {
		result := vector.QueryResult{Score: point.Score}
		result.ID = point.Id.GetUuid()
		if payload, ok := point.Payload["dataset_id"]; ok {
			result.DatasetID = payload.GetStringValue()
		}
		results = append(results, result)
	}

	return results, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewIDUUID(id))
	}

	wait := true
	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("%w: deleting %d points: %v", vector.ErrConnection, len(ids), err)
	}

	return nil
}

// Close releases the client connection.
func (d *Driver) Close() error {
	return d.client.Close()
}
