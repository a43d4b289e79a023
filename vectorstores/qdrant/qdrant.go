// Package qdrant implements a vector store backed by a Qdrant server,
// reached over its gRPC API.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sevigo/pdfchat/embeddings"
	"github.com/sevigo/pdfchat/schema"
	"github.com/sevigo/pdfchat/vectorstores"
)

const contentKey = "page_content"

// Store persists embedded documents in Qdrant collections. Documents
// are upserted in concurrent batches with retry; missing collections
// are created on first write using the embedder's dimension.
type Store struct {
	client         *qdrant.Client
	collectionName string
	opts           options
	logger         *slog.Logger
}

var (
	_ vectorstores.VectorStore       = (*Store)(nil)
	_ vectorstores.CollectionManager = (*Store)(nil)
	_ vectorstores.DocumentRemover   = (*Store)(nil)
)

// New connects to Qdrant and returns a store bound to the configured
// default collection.
func New(opts ...Option) (*Store, error) {
	storeOpts, err := parseOptions(opts...)
	if err != nil {
		return nil, err
	}

	logger := storeOpts.logger.With("component", "qdrant_store", "collection", storeOpts.collectionName)

	client, err := connect(storeOpts)
	if err != nil {
		return nil, fmt.Errorf("qdrant: client creation failed: %w", err)
	}

	logger.Info("Qdrant store initialized",
		"host", storeOpts.qdrantURL.Host,
		"batch_size", storeOpts.batchSize,
		"concurrency", storeOpts.concurrency)

	return &Store{
		client:         client,
		collectionName: storeOpts.collectionName,
		opts:           storeOpts,
		logger:         logger,
	}, nil
}

func connect(opts options) (*qdrant.Client, error) {
	portStr := opts.qdrantURL.Port()
	if portStr == "" {
		portStr = strconv.Itoa(defaultPort)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}

	config := &qdrant.Config{
		Host:   opts.qdrantURL.Hostname(),
		Port:   port,
		UseTLS: opts.useTLS,
	}
	if opts.apiKey != "" {
		config.APIKey = opts.apiKey
	}
	return qdrant.NewClient(config)
}

// AddDocuments embeds docs and upserts them into the target collection,
// creating the collection first if it does not exist. It returns the
// point IDs in document order.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}

	opts := vectorstores.ParseOptions(options...)
	embedder := s.embedderFor(opts)
	if embedder == nil {
		return nil, vectorstores.ErrMissingEmbedder
	}
	collection := s.targetCollection(opts)

	if err := s.ensureCollection(ctx, collection, opts); err != nil {
		return nil, fmt.Errorf("qdrant: collection preparation failed: %w", err)
	}

	start := time.Now()
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("qdrant: embedding documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("qdrant: embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	points := make([]*qdrant.PointStruct, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		id := documentID(doc)
		ids[i] = id
		points[i] = &qdrant.PointStruct{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}},
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: vectors[i]}}},
			Payload: documentToPayload(doc),
		}
	}

	if err := s.upsertBatches(ctx, collection, points); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "documents added",
		"collection", collection, "count", len(docs), "duration", time.Since(start))
	return ids, nil
}

// upsertBatches writes points in fixed-size batches, at most
// s.opts.concurrency in flight, each with exponential-backoff retry.
func (s *Store) upsertBatches(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	sem := make(chan struct{}, s.opts.concurrency)
	errCh := make(chan error, (len(points)/s.opts.batchSize)+1)
	var wg sync.WaitGroup

	for start := 0; start < len(points); start += s.opts.batchSize {
		end := min(start+s.opts.batchSize, len(points))
		batch := points[start:end]

		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.upsertWithRetry(ctx, collection, batch); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		return fmt.Errorf("qdrant: upsert batch failed: %w", err)
	}
	return nil
}

func (s *Store) upsertWithRetry(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	var lastErr error
	delay := defaultRetryDelay

	for attempt := 0; attempt <= s.opts.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay = min(time.Duration(float64(delay)*1.5), maxRetryDelay)
		}

		wait := true
		_, err := s.client.GetPointsClient().Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Wait:           &wait,
			Points:         points,
		})
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.Warn("upsert attempt failed", "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("after %d attempts: %w", s.opts.retryAttempts+1, lastErr)
}

// SimilaritySearch returns the numDocuments most similar documents.
func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	scored, err := s.SimilaritySearchWithScores(ctx, query, numDocuments, options...)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Document, 0, len(scored))
	for _, d := range scored {
		docs = append(docs, d.Document)
	}
	return docs, nil
}

// SimilaritySearchWithScores returns the numDocuments most similar
// documents with their cosine scores, honoring score-threshold and
// metadata-filter options.
func (s *Store) SimilaritySearchWithScores(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]vectorstores.DocumentWithScore, error) {
	if strings.TrimSpace(query) == "" {
		return []vectorstores.DocumentWithScore{}, nil
	}
	if numDocuments <= 0 {
		return nil, fmt.Errorf("qdrant: number of documents must be positive, got %d", numDocuments)
	}

	opts := vectorstores.ParseOptions(options...)
	embedder := s.embedderFor(opts)
	if embedder == nil {
		return nil, vectorstores.ErrMissingEmbedder
	}
	collection := s.targetCollection(opts)

	queryVector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant: embedding query: %w", err)
	}

	start := time.Now()
	searchResult, err := s.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         queryVector,
		Limit:          uint64(numDocuments),
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
		ScoreThreshold: &opts.ScoreThreshold,
		Filter:         buildFilter(opts.Filters),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, vectorstores.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	results := searchResult.GetResult()
	scored := make([]vectorstores.DocumentWithScore, len(results))
	for i, point := range results {
		scored[i] = vectorstores.DocumentWithScore{
			Document: payloadToDocument(point.GetPayload()),
			Score:    point.GetScore(),
		}
	}

	s.logger.DebugContext(ctx, "similarity search completed",
		"collection", collection, "results", len(scored), "duration", time.Since(start))
	return scored, nil
}

// CreateCollection creates a collection with cosine distance.
func (s *Store) CreateCollection(ctx context.Context, name string, dimension int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: collection name is required", ErrInvalidOptions)
	}
	if dimension <= 0 {
		return fmt.Errorf("qdrant: dimension must be positive, got %d", dimension)
	}

	_, err := s.client.GetCollectionsClient().Create(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: collection creation failed: %w", err)
	}

	s.logger.InfoContext(ctx, "collection created", "name", name, "dimension", dimension)
	return nil
}

// DeleteCollection removes a collection and all its points.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	_, err := s.client.GetCollectionsClient().Delete(ctx, &qdrant.DeleteCollection{
		CollectionName: name,
	})
	if err != nil {
		if isNotFound(err) {
			return vectorstores.ErrCollectionNotFound
		}
		return fmt.Errorf("qdrant: collection deletion failed: %w", err)
	}

	s.logger.InfoContext(ctx, "collection deleted", "name", name)
	return nil
}

// ListCollections returns name, point count and vector parameters for
// every collection on the server.
func (s *Store) ListCollections(ctx context.Context) ([]schema.CollectionInfo, error) {
	resp, err := s.client.GetCollectionsClient().List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return nil, fmt.Errorf("qdrant: listing collections: %w", err)
	}

	infos := make([]schema.CollectionInfo, 0, len(resp.GetCollections()))
	for _, col := range resp.GetCollections() {
		info := schema.CollectionInfo{Name: col.GetName()}

		detail, err := s.client.GetCollectionsClient().Get(ctx, &qdrant.GetCollectionInfoRequest{
			CollectionName: col.GetName(),
		})
		if err == nil {
			result := detail.GetResult()
			info.PointsCount = result.GetPointsCount()
			if params := result.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
				info.VectorSize = params.GetSize()
				info.VectorDistance = params.GetDistance().String()
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// HasCollection reports whether a collection exists.
func (s *Store) HasCollection(ctx context.Context, name string) (bool, error) {
	_, err := s.client.GetCollectionsClient().Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: name,
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("qdrant: checking collection %q: %w", name, err)
	}
	return true, nil
}

// DeleteDocumentsByFilter removes every point whose payload matches all
// given filters, e.g. all chunks of one source file.
func (s *Store) DeleteDocumentsByFilter(ctx context.Context, filters map[string]any, options ...vectorstores.Option) error {
	filter := buildFilter(filters)
	if filter == nil {
		return fmt.Errorf("qdrant: refusing to delete with an empty filter")
	}

	opts := vectorstores.ParseOptions(options...)
	collection := s.targetCollection(opts)

	wait := true
	_, err := s.client.GetPointsClient().Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           &wait,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete by filter failed: %w", err)
	}

	s.logger.InfoContext(ctx, "documents deleted by filter", "collection", collection)
	return nil
}

// Health verifies the server is reachable.
func (s *Store) Health(ctx context.Context) error {
	if _, err := s.client.GetCollectionsClient().List(ctx, &qdrant.ListCollectionsRequest{}); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// ensureCollection creates the collection on first write, sizing it by
// the embedder's dimension.
func (s *Store) ensureCollection(ctx context.Context, name string, opts vectorstores.Options) error {
	exists, err := s.HasCollection(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	embedder := s.embedderFor(opts)
	dimension, err := embedder.GetDimension(ctx)
	if err != nil {
		return fmt.Errorf("resolving embedder dimension: %w", err)
	}

	if err := s.CreateCollection(ctx, name, dimension); err != nil {
		return err
	}

	// Give the server a moment to propagate the new collection.
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Store) embedderFor(opts vectorstores.Options) embeddings.Embedder {
	if opts.Embedder != nil {
		return opts.Embedder
	}
	return s.opts.embedder
}

func (s *Store) targetCollection(opts vectorstores.Options) string {
	if opts.NameSpace != "" {
		return opts.NameSpace
	}
	return s.collectionName
}

func isNotFound(err error) bool {
	stat, ok := status.FromError(err)
	return ok && stat.Code() == codes.NotFound
}

func documentID(doc schema.Document) string {
	if id, ok := doc.Metadata["id"].(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

func documentToPayload(doc schema.Document) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(doc.Metadata)+1)
	payload[contentKey] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: doc.PageContent}}

	for key, value := range doc.Metadata {
		if qValue := toQdrantValue(value); qValue != nil {
			payload[key] = qValue
		}
	}
	return payload
}

func toQdrantValue(value any) *qdrant.Value {
	switch v := value.(type) {
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
	case nil:
		return &qdrant.Value{Kind: &qdrant.Value_NullValue{}}
	default:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprintf("%v", v)}}
	}
}

func payloadToDocument(payload map[string]*qdrant.Value) schema.Document {
	doc := schema.Document{Metadata: make(map[string]any)}

	for key, value := range payload {
		if key == contentKey {
			doc.PageContent = value.GetStringValue()
			continue
		}
		if converted := fromQdrantValue(value); converted != nil {
			doc.Metadata[key] = converted
		}
	}
	return doc
}

func fromQdrantValue(value *qdrant.Value) any {
	switch v := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue
	case *qdrant.Value_DoubleValue:
		return v.DoubleValue
	case *qdrant.Value_BoolValue:
		return v.BoolValue
	default:
		return nil
	}
}

func buildFilter(filters map[string]any) *qdrant.Filter {
	if len(filters) == 0 {
		return nil
	}

	conditions := make([]*qdrant.Condition, 0, len(filters))
	for key, value := range filters {
		var match *qdrant.Match

		switch v := value.(type) {
		case string:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: v}}
		case int:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: int64(v)}}
		case int64:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: v}}
		case bool:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Boolean{Boolean: v}}
		default:
			continue
		}

		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{Key: key, Match: match},
			},
		})
	}

	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}
