// Package qdrant provides a driven.SemanticIndex backed by a Qdrant
// collection, reached over Qdrant's gRPC API.
package qdrant

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
	"github.com/just-ask-ai/justask/internal/logger"
)

// pointNamespace derives stable point ids from record ids.
var pointNamespace = uuid.MustParse("6f1c2a3e-8b7d-4c1e-9a55-0d3c8e2f4b61")

// payloadSummary holds the document text in each point's payload.
const payloadSummary = "summary"

// scrollPage is the number of points read per scroll request.
const scrollPage = 1024

// Config configures the Qdrant connection.
type Config struct {
	Host       string
	Port       int
	Collection string
}

// Index implements driven.SemanticIndex.
type Index struct {
	collection  string
	points      pb.PointsClient
	collections pb.CollectionsClient
	embedder    driven.EmbeddingService
	conn        *grpc.ClientConn

	mu    sync.Mutex
	ready bool
}

var _ driven.SemanticIndex = (*Index)(nil)

// New dials Qdrant. The collection is created on first write.
func New(cfg Config, embedder driven.EmbeddingService) (*Index, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant at %s: %w", domain.ErrIndexUnavailable, addr, err)
	}

	idx := newIndex(cfg.Collection, pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), embedder)
	idx.conn = conn
	return idx, nil
}

func newIndex(collection string, points pb.PointsClient, collections pb.CollectionsClient, embedder driven.EmbeddingService) *Index {
	return &Index{
		collection:  collection,
		points:      points,
		collections: collections,
		embedder:    embedder,
	}
}

// AddDocuments embeds the batch and upserts it with wait=true, so the
// batch is durable when the call returns.
func (i *Index) AddDocuments(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if i.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(docs))
	for n := range docs {
		texts[n] = docs[n].Summary
	}
	vectors, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("%w: got %d embeddings for %d documents", domain.ErrEmbeddingUnavailable, len(vectors), len(docs))
	}

	if err := i.ensureCollection(ctx); err != nil {
		return err
	}

	points := make([]*pb.PointStruct, len(docs))
	for n := range docs {
		points[n] = &pb.PointStruct{
			Id: pointID(docs[n].RecordID),
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vectors[n]}},
			},
			Payload: payload(docs[n]),
		}
	}

	wait := true
	if _, err := i.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: i.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("%w: upserting %d points: %w", domain.ErrIndexUnavailable, len(points), err)
	}
	return nil
}

// Search returns up to k documents matching filter, best first. Before the
// first write there is no collection and the result is empty.
func (i *Index) Search(ctx context.Context, query string, k int, filter domain.MetadataFilter) ([]domain.ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if i.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	exists, err := i.hasCollection(ctx)
	if err != nil || !exists {
		return nil, err
	}

	vector, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	resp, err := i.points.Search(ctx, &pb.SearchPoints{
		CollectionName: i.collection,
		Vector:         vector,
		Filter:         toFilter(filter),
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: searching %s: %w", domain.ErrIndexUnavailable, i.collection, err)
	}

	results := make([]domain.ScoredDocument, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		results = append(results, domain.ScoredDocument{
			Document: fromPayload(p.GetPayload()),
			Score:    float64(p.GetScore()),
		})
	}
	return results, nil
}

// RecordIDs scrolls the collection reading only the record id payload field.
func (i *Index) RecordIDs(ctx context.Context) ([]string, error) {
	exists, err := i.collectionExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	limit := uint32(scrollPage)
	withPayload := &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Include{
		Include: &pb.PayloadIncludeSelector{Fields: []string{domain.MetaRecordID}},
	}}

	var ids []string
	var offset *pb.PointId
	for {
		resp, err := i.points.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: i.collection,
			Offset:         offset,
			Limit:          &limit,
			WithPayload:    withPayload,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: scrolling %s: %w", domain.ErrIndexUnavailable, i.collection, err)
		}
		for _, p := range resp.GetResult() {
			if id := p.GetPayload()[domain.MetaRecordID].GetStringValue(); id != "" {
				ids = append(ids, id)
			}
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			return ids, nil
		}
	}
}

// Count returns the exact number of points in the collection.
func (i *Index) Count(ctx context.Context) (int, error) {
	exists, err := i.collectionExists(ctx)
	if err != nil || !exists {
		return 0, err
	}

	exact := true
	resp, err := i.points.Count(ctx, &pb.CountPoints{CollectionName: i.collection, Exact: &exact})
	if err != nil {
		return 0, fmt.Errorf("%w: counting %s: %w", domain.ErrIndexUnavailable, i.collection, err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// Close closes the gRPC connection.
func (i *Index) Close() error {
	if i.conn == nil {
		return nil
	}
	return i.conn.Close()
}

// ==================== Collection Setup ====================

// hasCollection skips the listing once the collection is known to exist.
func (i *Index) hasCollection(ctx context.Context) (bool, error) {
	i.mu.Lock()
	ready := i.ready
	i.mu.Unlock()
	if ready {
		return true, nil
	}
	return i.collectionExists(ctx)
}

func (i *Index) collectionExists(ctx context.Context) (bool, error) {
	resp, err := i.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("%w: listing collections: %w", domain.ErrIndexUnavailable, err)
	}
	for _, c := range resp.GetCollections() {
		if c.GetName() == i.collection {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection creates the collection with cosine distance and keyword
// indexes on every metadata field.
func (i *Index) ensureCollection(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.ready {
		return nil
	}

	exists, err := i.collectionExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		dims := i.embedder.Dimensions()
		if dims <= 0 {
			return fmt.Errorf("%w: embedding model %s has unknown dimensions", domain.ErrEmbeddingUnavailable, i.embedder.ModelName())
		}
		logger.Info("qdrant: creating collection %s (%d dimensions)", i.collection, dims)
		if _, err := i.collections.Create(ctx, &pb.CreateCollection{
			CollectionName: i.collection,
			VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{Size: uint64(dims), Distance: pb.Distance_Cosine},
			}},
		}); err != nil {
			return fmt.Errorf("%w: creating collection %s: %w", domain.ErrIndexUnavailable, i.collection, err)
		}

		keyword := pb.FieldType_FieldTypeKeyword
		for _, key := range domain.MetadataKeys() {
			if _, err := i.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
				CollectionName: i.collection,
				FieldName:      key,
				FieldType:      &keyword,
			}); err != nil {
				logger.Warn("qdrant: indexing payload field %s: %v", key, err)
			}
		}
	}

	i.ready = true
	return nil
}

// ==================== Helper Functions ====================

// pointID maps a record id to a deterministic UUID point id.
func pointID(recordID string) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{
		Uuid: uuid.NewSHA1(pointNamespace, []byte(recordID)).String(),
	}}
}

func payload(doc domain.Document) map[string]*pb.Value {
	meta := doc.Metadata.Map()
	p := make(map[string]*pb.Value, len(meta)+1)
	for k, v := range meta {
		p[k] = stringValue(v)
	}
	p[domain.MetaRecordID] = stringValue(doc.RecordID)
	p[payloadSummary] = stringValue(doc.Summary)
	return p
}

func fromPayload(p map[string]*pb.Value) domain.Document {
	meta := make(map[string]string, len(p))
	for k, v := range p {
		meta[k] = v.GetStringValue()
	}
	return domain.Document{
		RecordID: meta[domain.MetaRecordID],
		Summary:  meta[payloadSummary],
		Metadata: domain.MetadataFromMap(meta),
	}
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

// toFilter converts a metadata filter into keyword match conditions.
func toFilter(filter domain.MetadataFilter) *pb.Filter {
	if len(filter) == 0 {
		return nil
	}
	must := make([]*pb.Condition, 0, len(filter))
	for _, k := range filter.Keys() {
		must = append(must, &pb.Condition{ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key:   k,
				Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: filter[k]}},
			},
		}})
	}
	return &pb.Filter{Must: must}
}
