// Package vectorstore wraps the shared Qdrant collection holding one point
// per repository. Points are keyed by the numeric GitHub repository ID and
// shared across users: the starredBy payload field decides visibility, never
// physical isolation.
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"

	"github.com/starseekers/starseekers/internal/models"
)

// fetchBatchSize caps a single get-by-ids request.
const fetchBatchSize = 100

// Index is a qdrant-backed vector index over repository records.
type Index struct {
	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	collection  string
	dimension   uint64
}

// New connects to Qdrant and ensures the collection (and the starredBy
// keyword index used by every membership filter) exists.
func New(ctx context.Context, addr, collection string, dimension int) (*Index, error) {
	if addr == "" {
		return nil, errors.New("QDRANT_ADDR is not set")
	}
	if collection == "" {
		return nil, errors.New("QDRANT_COLLECTION is not set")
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("could not connect to Qdrant: %w", err)
	}

	idx := &Index{
		conn:        conn,
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		collection:  collection,
		dimension:   uint64(dimension),
	}

	if err := idx.ensureCollection(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return idx, nil
}

// ensureCollection creates the collection and payload index when missing.
func (i *Index) ensureCollection(ctx context.Context) error {
	_, err := i.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: i.collection,
	})
	if err == nil {
		return nil
	}

	_, err = i.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     i.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", i.collection, err)
	}

	_, err = i.points.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: i.collection,
		FieldName:      fieldStarredBy,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           proto.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to index %s payload field: %w", fieldStarredBy, err)
	}
	return nil
}

// FetchRecords looks up existing records by repository ID, batching requests
// to stay under the index's lookup-size limit. Missing IDs are simply absent
// from the returned map.
func (i *Index) FetchRecords(ctx context.Context, ids []int64) (map[int64]models.RepoRecord, error) {
	records := make(map[int64]models.RepoRecord, len(ids))

	for start := 0; start < len(ids); start += fetchBatchSize {
		end := min(start+fetchBatchSize, len(ids))
		pointIDs := make([]*qdrant.PointId, 0, end-start)
		for _, id := range ids[start:end] {
			pointIDs = append(pointIDs, numericID(id))
		}

		resp, err := i.points.Get(ctx, &qdrant.GetPoints{
			CollectionName: i.collection,
			Ids:            pointIDs,
			WithPayload:    withPayload(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch records from index: %w", err)
		}

		for _, point := range resp.GetResult() {
			rec := payloadToRecord(int64(point.GetId().GetNum()), 0, point.GetPayload())
			records[rec.ID] = rec
		}
	}

	return records, nil
}

// UpsertRecords writes full records (vector + payload), overwriting any
// previous point with the same ID. Wait is set so a completed upsert batch is
// durable before the next progress event goes out.
func (i *Index) UpsertRecords(ctx context.Context, records []models.RepoRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for j, rec := range records {
		points[j] = &qdrant.PointStruct{
			Id:      numericID(rec.ID),
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: rec.Vector}}},
			Payload: recordPayload(rec),
		}
	}

	_, err := i.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Points:         points,
		Wait:           proto.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// SetStarredBy patches only the starredBy payload field of one record,
// leaving the vector and the rest of the metadata untouched. Last writer
// wins; concurrent patches must target disjoint IDs.
func (i *Index) SetStarredBy(ctx context.Context, id int64, starredBy []string) error {
	_, err := i.points.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: i.collection,
		Payload: map[string]*qdrant.Value{
			fieldStarredBy: stringListValue(starredBy),
		},
		PointsSelector: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: []*qdrant.PointId{numericID(id)}},
			},
		},
		Wait: proto.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to patch starredBy for record %d: %w", id, err)
	}
	return nil
}

// Query runs a similarity search restricted to records whose starredBy set
// contains userID. Results come back in descending score order.
func (i *Index) Query(ctx context.Context, vector []float32, userID string, limit int) ([]models.RepoRecord, error) {
	resp, err := i.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: i.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload:    withPayload(),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{starredByCondition(userID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	hits := resp.GetResult()
	records := make([]models.RepoRecord, 0, len(hits))
	for _, hit := range hits {
		records = append(records, payloadToRecord(int64(hit.GetId().GetNum()), float64(hit.GetScore()), hit.GetPayload()))
	}
	return records, nil
}

// Ping verifies the collection is reachable.
func (i *Index) Ping(ctx context.Context) error {
	_, err := i.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: i.collection,
	})
	return err
}

// Close tears down the underlying gRPC connection.
func (i *Index) Close() error {
	return i.conn.Close()
}

func numericID(id int64) *qdrant.PointId {
	return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: uint64(id)}}
}

func withPayload() *qdrant.WithPayloadSelector {
	return &qdrant.WithPayloadSelector{
		SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
	}
}

func starredByCondition(userID string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key:   fieldStarredBy,
				Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: userID}},
			},
		},
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
