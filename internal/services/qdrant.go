package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

// Payload keys stored with every transcript chunk.
const (
	payloadTranscriptID = "transcript_id"
	payloadFounderID    = "founder_id"
	payloadStartupID    = "startup_id"
	payloadChunkIndex   = "chunk_index"
	payloadText         = "text"
)

// embeddingDimensions matches text-embedding-004.
const embeddingDimensions = 768

// ChunkRef identifies where a transcript chunk came from.
type ChunkRef struct {
	TranscriptID uuid.UUID
	FounderID    uuid.UUID
	StartupID    uuid.UUID
}

type SearchResult struct {
	TranscriptID string
	ChunkIndex   int64
	Score        float32
	Text         string
}

// VectorStore holds transcript chunk embeddings for semantic search.
type VectorStore interface {
	InitCollection(ctx context.Context) error
	UpsertChunks(ctx context.Context, ref ChunkRef, chunks []string, embeddings [][]float32) error
	SearchFounder(ctx context.Context, queryEmbedding []float32, founderID uuid.UUID, limit int) ([]SearchResult, error)
	DeleteTranscript(ctx context.Context, transcriptID uuid.UUID) error
	DeleteFounder(ctx context.Context, founderID uuid.UUID) error
	DeleteStartup(ctx context.Context, startupID uuid.UUID) error
}

type qdrantService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	logger         *zap.Logger
}

func NewQdrantService(urlStr, apiKey, collectionName string, logger *zap.Logger) (VectorStore, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		collectionName: collectionName,
		vectorSize:     embeddingDimensions,
		logger:         logger.Named("qdrant"),
	}, nil
}

func (q *qdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		q.logger.Info("Qdrant collection already exists", zap.String("collection", q.collectionName))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	for _, field := range []string{payloadFounderID, payloadStartupID, payloadTranscriptID} {
		_, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.collectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to index payload field %s: %w", field, err)
		}
	}

	q.logger.Info("Qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

// chunkPointID is stable per (transcript, chunk) so re-indexing overwrites points.
func chunkPointID(transcriptID uuid.UUID, index int) string {
	return uuid.NewSHA1(transcriptID, []byte(strconv.Itoa(index))).String()
}

func (q *qdrantService) UpsertChunks(ctx context.Context, ref ChunkRef, chunks []string, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d != %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, text := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(chunkPointID(ref.TranscriptID, i)),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadTranscriptID: ref.TranscriptID.String(),
				payloadFounderID:    ref.FounderID.String(),
				payloadStartupID:    ref.StartupID.String(),
				payloadChunkIndex:   i,
				payloadText:         text,
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

func (q *qdrantService) SearchFounder(ctx context.Context, queryEmbedding []float32, founderID uuid.UUID, limit int) ([]SearchResult, error) {
	searchResult, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(payloadFounderID, founderID.String()),
			},
		},
		Limit:       qdrant.PtrOf(uint64(limit)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(searchResult))
	for _, point := range searchResult {
		payload := point.Payload
		results = append(results, SearchResult{
			TranscriptID: payload[payloadTranscriptID].GetStringValue(),
			ChunkIndex:   payload[payloadChunkIndex].GetIntegerValue(),
			Score:        point.Score,
			Text:         payload[payloadText].GetStringValue(),
		})
	}

	return results, nil
}

func (q *qdrantService) DeleteTranscript(ctx context.Context, transcriptID uuid.UUID) error {
	return q.deleteByField(ctx, payloadTranscriptID, transcriptID.String())
}

func (q *qdrantService) DeleteFounder(ctx context.Context, founderID uuid.UUID) error {
	return q.deleteByField(ctx, payloadFounderID, founderID.String())
}

func (q *qdrantService) DeleteStartup(ctx context.Context, startupID uuid.UUID) error {
	return q.deleteByField(ctx, payloadStartupID, startupID.String())
}

func (q *qdrantService) deleteByField(ctx context.Context, field, value string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch(field, value),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete points by %s: %w", field, err)
	}

	return nil
}
