package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/hyperjump/kenpo/internal/models"
)

// Payload keys. The flat keys exist for server-side filtering; the full
// metadata object travels as JSON under payloadMetadata.
const (
	payloadRecordID = "record_id"
	payloadDocID    = "doc_id"
	payloadText     = "text"
	payloadSource   = "source"
	payloadCountry  = "country"
	payloadDocType  = "doc_type"
	payloadArticle  = "article_number"
	payloadMetadata = "metadata"
)

var pointNamespace = uuid.MustParse("5b1f0f4e-8a57-4a4a-9d0c-6b656e706f00")

// QdrantConfig is the connection used by NewQdrantStore.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimensions int
}

// QdrantStore keeps records as points in a Qdrant collection.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimensions int
}

// NewQdrantStore connects to Qdrant and creates the collection when missing.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	s := &QdrantStore{client: client, collection: cfg.Collection, dimensions: cfg.Dimensions}
	if err := s.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Name implements DocumentStore.
func (s *QdrantStore) Name() string { return "qdrant" }

// DenseSearch implements DocumentStore.
func (s *QdrantStore) DenseSearch(ctx context.Context, vec []float32, filter models.Filter, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		return nil, nil
	}
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vec...),
		Filter:         qdrantFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	hits := make([]models.SearchHit, 0, len(points))
	for _, p := range points {
		rec, err := recordFromPayload(p.GetPayload())
		if err != nil {
			return nil, err
		}
		hits = append(hits, rec.Hit(float64(p.GetScore()), len(hits)+1))
	}
	return hits, nil
}

// Scan implements DocumentStore.
func (s *QdrantStore) Scan(ctx context.Context, filter models.Filter, limit int) ([]models.Record, error) {
	return s.scroll(ctx, qdrantFilter(filter), limit)
}

// MatchArticle implements DocumentStore.
func (s *QdrantStore) MatchArticle(ctx context.Context, articleNumber string, filter models.Filter, limit int) ([]models.Record, error) {
	f := qdrantFilter(filter)
	if f == nil {
		f = &qdrant.Filter{}
	}
	f.Must = append(f.Must, qdrant.NewMatch(payloadArticle, articleNumber))
	return s.scroll(ctx, f, limit)
}

func (s *QdrantStore) scroll(ctx context.Context, filter *qdrant.Filter, limit int) ([]models.Record, error) {
	req := &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if limit > 0 {
		req.Limit = qdrant.PtrOf(uint32(limit))
	}
	points, err := s.client.Scroll(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to scroll: %w", err)
	}
	out := make([]models.Record, 0, len(points))
	for _, p := range points {
		rec, err := recordFromPayload(p.GetPayload())
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Upsert implements DocumentStore.
func (s *QdrantStore) Upsert(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		payload, err := pointPayload(r)
		if err != nil {
			return err
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(r.ID)),
			Payload: payload,
			Vectors: qdrant.NewVectors(r.Embedding...),
		}
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// DeleteBySource implements DocumentStore.
func (s *QdrantStore) DeleteBySource(ctx context.Context, source string) (int, error) {
	filter := &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatch(payloadSource, source)}}
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete by source: %w", err)
	}
	return int(n), nil
}

// Count implements DocumentStore.
func (s *QdrantStore) Count(ctx context.Context, filter models.Filter) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         qdrantFilter(filter),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// PointID maps a record id to the UUID Qdrant requires. Ids that already
// are UUIDs are kept.
func PointID(recordID string) string {
	if u, err := uuid.Parse(recordID); err == nil {
		return u.String()
	}
	return uuid.NewSHA1(pointNamespace, []byte(recordID)).String()
}

func qdrantFilter(filter models.Filter) *qdrant.Filter {
	f := &qdrant.Filter{}
	if filter.Country != "" {
		f.Must = append(f.Must, qdrant.NewMatch(payloadCountry, filter.Country))
	}
	if filter.DocType != "" {
		f.Must = append(f.Must, qdrant.NewMatch(payloadDocType, filter.DocType))
	}
	if filter.ExcludeCountry != "" {
		f.MustNot = append(f.MustNot, qdrant.NewMatch(payloadCountry, filter.ExcludeCountry))
	}
	if len(f.Must) == 0 && len(f.MustNot) == 0 {
		return nil
	}
	return f
}

func pointPayload(r models.Record) (map[string]*qdrant.Value, error) {
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return map[string]*qdrant.Value{
		payloadRecordID: qdrant.NewValueString(r.ID),
		payloadDocID:    qdrant.NewValueString(r.DocID),
		payloadText:     qdrant.NewValueString(r.Text),
		payloadSource:   qdrant.NewValueString(r.Source),
		payloadCountry:  qdrant.NewValueString(r.Metadata.Country),
		payloadDocType:  qdrant.NewValueString(r.Metadata.DocType),
		payloadArticle:  qdrant.NewValueString(r.Metadata.Structure.ArticleNumber),
		payloadMetadata: qdrant.NewValueString(string(meta)),
	}, nil
}

func recordFromPayload(payload map[string]*qdrant.Value) (models.Record, error) {
	str := func(k string) string {
		if v, ok := payload[k]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	r := models.Record{
		ID:     str(payloadRecordID),
		DocID:  str(payloadDocID),
		Text:   str(payloadText),
		Source: str(payloadSource),
	}
	if raw := str(payloadMetadata); raw != "" {
		if err := json.Unmarshal([]byte(raw), &r.Metadata); err != nil {
			return models.Record{}, fmt.Errorf("failed to unmarshal metadata for %s: %w", r.ID, err)
		}
	}
	return r, nil
}
