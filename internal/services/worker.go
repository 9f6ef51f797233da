package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/repositories"
)

// pollBatchSize bounds how many unindexed transcripts one poll picks up.
const pollBatchSize = 10

// Indexer makes uploaded transcripts searchable in the background.
type Indexer interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(transcriptID uuid.UUID)
}

type indexWorker struct {
	transcriptRepo repositories.TranscriptRepository
	embedder       Embedder
	store          VectorStore
	chunker        TextChunker
	jobQueue       chan uuid.UUID
	concurrency    int
	pollInterval   time.Duration
	logger         *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

func NewIndexWorker(
	transcriptRepo repositories.TranscriptRepository,
	embedder Embedder,
	store VectorStore,
	chunker TextChunker,
	concurrency int,
	pollInterval time.Duration,
	logger *zap.Logger,
) Indexer {
	return &indexWorker{
		transcriptRepo: transcriptRepo,
		embedder:       embedder,
		store:          store,
		chunker:        chunker,
		jobQueue:       make(chan uuid.UUID, 100),
		concurrency:    concurrency,
		pollInterval:   pollInterval,
		logger:         logger.Named("indexer"),
		inFlight:       make(map[uuid.UUID]struct{}),
		stopChan:       make(chan struct{}),
	}
}

func (w *indexWorker) Start(ctx context.Context) {
	w.logger.Info("Starting transcript indexer", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollUnindexed(ctx)
}

func (w *indexWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping transcript indexer")
		close(w.stopChan)
		w.wg.Wait()
		w.logger.Info("Transcript indexer stopped")
	})
}

// Enqueue never blocks past Stop. A transcript already queued or running is skipped.
func (w *indexWorker) Enqueue(transcriptID uuid.UUID) {
	w.mu.Lock()
	if _, busy := w.inFlight[transcriptID]; busy {
		w.mu.Unlock()
		return
	}
	w.inFlight[transcriptID] = struct{}{}
	w.mu.Unlock()

	select {
	case w.jobQueue <- transcriptID:
		w.logger.Debug("Transcript enqueued for indexing", zap.String("transcript_id", transcriptID.String()))
	case <-w.stopChan:
		w.release(transcriptID)
		w.logger.Warn("Indexer stopped, cannot enqueue transcript", zap.String("transcript_id", transcriptID.String()))
	}
}

func (w *indexWorker) release(transcriptID uuid.UUID) {
	w.mu.Lock()
	delete(w.inFlight, transcriptID)
	w.mu.Unlock()
}

func (w *indexWorker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case transcriptID := <-w.jobQueue:
			log := w.logger.With(zap.Int("worker", workerID), zap.String("transcript_id", transcriptID.String()))
			if err := w.indexTranscript(ctx, transcriptID); err != nil {
				log.Warn("Failed to index transcript", zap.Error(err))
			} else {
				log.Info("Transcript indexed")
			}
			w.release(transcriptID)
		}
	}
}

func (w *indexWorker) indexTranscript(ctx context.Context, transcriptID uuid.UUID) error {
	row, err := w.transcriptRepo.FindRow(ctx, transcriptID)
	if err != nil {
		return err
	}

	chunks := w.chunker.ChunkText(row.RawText)
	embeddings := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := w.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		embeddings = append(embeddings, embedding)
	}

	ref := ChunkRef{TranscriptID: row.ID, FounderID: row.FounderID, StartupID: row.StartupID}
	if err := w.store.UpsertChunks(ctx, ref, chunks, embeddings); err != nil {
		return err
	}

	return w.transcriptRepo.MarkIndexed(ctx, transcriptID, time.Now())
}

func (w *indexWorker) pollUnindexed(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pending, err := w.transcriptRepo.FindUnindexed(ctx, pollBatchSize)
			if err != nil {
				w.logger.Warn("Failed to fetch unindexed transcripts", zap.Error(err))
				continue
			}

			for _, t := range pending {
				w.Enqueue(t.ID)
			}
		}
	}
}

type noopIndexer struct{}

// NewNoopIndexer is used when no vector store or embedding model is configured.
func NewNoopIndexer() Indexer {
	return noopIndexer{}
}

func (noopIndexer) Start(ctx context.Context) {}
func (noopIndexer) Stop()                     {}
func (noopIndexer) Enqueue(uuid.UUID)         {}
