package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
	"github.com/custodia-labs/docuquery/internal/logger"
	"github.com/custodia-labs/docuquery/internal/metrics"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the ingestion pipeline:
// text -> chunks -> embeddings -> chunk registry + vector index.
type IngestService struct {
	chunker     driven.Chunker
	gateway     *EmbeddingGateway
	index       driven.VectorIndex
	registry    driven.ChunkRegistry
	docStore    driven.DocumentStore
	loader      driven.DocumentLoader
	normalisers driven.NormaliserRegistry
	locks       *DocumentLocks
	now         func() time.Time
}

// NewIngestService creates a new ingest service. loader and normalisers
// are only needed by IngestFile and may be nil otherwise. locks must be
// the set shared with the DocumentService; nil creates a private one.
func NewIngestService(
	chunker driven.Chunker,
	gateway *EmbeddingGateway,
	index driven.VectorIndex,
	registry driven.ChunkRegistry,
	docStore driven.DocumentStore,
	loader driven.DocumentLoader,
	normalisers driven.NormaliserRegistry,
	locks *DocumentLocks,
) *IngestService {
	return &IngestService{
		chunker:     chunker,
		gateway:     gateway,
		index:       index,
		registry:    registry,
		docStore:    docStore,
		loader:      loader,
		normalisers: normalisers,
		locks:       orNewLocks(locks),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Ingest chunks, embeds and indexes one document. The document is only
// marked processed once every chunk is in both the registry and the
// index; any failure leaves it failed with nothing visible.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	logger.Section("Ingestion")

	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: document text is empty", domain.ErrInvalidInput)
	}

	id := strings.TrimSpace(req.DocumentID)
	if id == "" {
		id = uuid.NewString()
	}

	if !s.locks.tryLock(id) {
		return nil, fmt.Errorf("%w: document %s is already being ingested", domain.ErrAlreadyExists, id)
	}
	defer s.locks.unlock(id)

	now := s.now()
	doc := &domain.Document{
		ID:        id,
		Filename:  req.Filename,
		Path:      req.Path,
		MIMEType:  req.MIMEType,
		Status:    domain.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if doc.Filename == "" {
		doc.Filename = filenameFromPath(req.Path, id)
	}

	existing, err := s.docStore.GetDocument(ctx, id)
	switch {
	case err == nil:
		if existing.Status != domain.StatusFailed && existing.Status != domain.StatusDeleted {
			return nil, fmt.Errorf("%w: document %s is %s", domain.ErrAlreadyExists, id, existing.Status)
		}
		doc.CreatedAt = existing.CreatedAt
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("look up document: %w", err)
	}

	logger.Debug("Document %s (%s), %d characters", id, doc.Filename, len([]rune(req.Text)))

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	chunks, err := s.chunker.Chunk(id, req.Text)
	if err != nil {
		return nil, s.fail(ctx, doc, fmt.Errorf("chunk document: %w", err))
	}
	logger.Debug("Chunker %s produced %d chunks", s.chunker.Name(), len(chunks))

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	session := s.gateway.NewSession()
	vectors, err := session.Embed(ctx, texts)
	if err != nil {
		return nil, s.fail(ctx, doc, fmt.Errorf("embed chunks: %w", err))
	}
	logger.Debug("Embedded %d chunks (%d distinct texts)", len(chunks), session.CacheSize())

	if err := s.registry.PutChunks(ctx, chunks...); err != nil {
		s.rollback(ctx, id, nil)
		return nil, s.fail(ctx, doc, fmt.Errorf("store chunks: %w", err))
	}

	inserted := make([]string, 0, len(chunks))
	for i := range chunks {
		if err := s.index.Insert(ctx, chunks[i].ID, vectors[i]); err != nil {
			s.rollback(ctx, id, inserted)
			return nil, s.fail(ctx, doc, fmt.Errorf("index chunk %d: %w", chunks[i].Position, err))
		}
		inserted = append(inserted, chunks[i].ID)
	}

	// Another process sharing the store may have deleted the document.
	current, err := s.docStore.GetDocument(ctx, id)
	if err != nil {
		s.rollback(ctx, id, inserted)
		return nil, s.fail(ctx, doc, fmt.Errorf("look up document: %w", err))
	}
	if current.Status != domain.StatusProcessing {
		s.rollback(ctx, id, inserted)
		metrics.RecordIngest(string(domain.StatusFailed), 0)
		return nil, fmt.Errorf("%w: document %s became %s during ingestion", domain.ErrConflict, id, current.Status)
	}

	doc.ChunkIDs = inserted
	doc.Status = domain.StatusProcessed
	doc.Error = ""
	doc.UpdatedAt = s.now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		s.rollback(ctx, id, inserted)
		return nil, s.fail(ctx, doc, fmt.Errorf("save document: %w", err))
	}

	checkpoint(ctx, s.index)
	metrics.RecordIngest(string(domain.StatusProcessed), len(chunks))
	logger.Info("Ingested %s: %d chunks", id, len(chunks))

	return &driving.IngestResult{
		DocumentID: id,
		ChunkCount: len(chunks),
		Status:     domain.StatusProcessed,
	}, nil
}

// IngestFile extracts the file at path and ingests it. A live document
// previously ingested from the same path is removed once the new one is
// processed.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*driving.IngestResult, error) {
	if s.loader == nil || s.normalisers == nil {
		return nil, fmt.Errorf("ingest file: %w: no loader configured", domain.ErrNotImplemented)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, path, err)
	}

	raw, err := s.loader.Load(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if !s.normalisers.Supports(raw.MIMEType) {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedFormat, raw.Filename, raw.MIMEType)
	}

	result, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) || errors.Is(err, domain.ErrExtractionFailed) {
			return nil, fmt.Errorf("extract %s: %w", raw.Filename, err)
		}
		return nil, fmt.Errorf("extract %s: %w: %w", raw.Filename, domain.ErrExtractionFailed, err)
	}
	if strings.TrimSpace(result.Content) == "" {
		return nil, fmt.Errorf("%w: %s contains no text", domain.ErrExtractionFailed, raw.Filename)
	}

	previous, err := s.findByPath(ctx, abs)
	if err != nil {
		return nil, err
	}

	ingested, err := s.Ingest(ctx, driving.IngestRequest{
		Text:     result.Content,
		Filename: raw.Filename,
		Path:     abs,
		MIMEType: raw.MIMEType,
	})
	if err != nil {
		return nil, err
	}

	// The previous version is only dropped once its replacement is live.
	if previous != nil {
		logger.Info("Replacing %s (previous document %s)", abs, previous.ID)
		if !s.locks.tryLock(previous.ID) {
			return ingested, fmt.Errorf("remove previous version: %w: document %s is busy", domain.ErrConflict, previous.ID)
		}
		defer s.locks.unlock(previous.ID)
		if _, err := removeDocument(ctx, s.docStore, s.registry, s.index, previous, s.now()); err != nil {
			return ingested, fmt.Errorf("remove previous version: %w", err)
		}
		checkpoint(ctx, s.index)
	}

	return ingested, nil
}

// RemoveFile deletes the live document ingested from path.
func (s *IngestService) RemoveFile(ctx context.Context, path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, path, err)
	}

	doc, err := s.findByPath(ctx, abs)
	if err != nil {
		return 0, err
	}
	if doc == nil {
		return 0, fmt.Errorf("%w: no document for %s", domain.ErrNotFound, abs)
	}
	if !s.locks.tryLock(doc.ID) {
		return 0, fmt.Errorf("%w: document %s is being ingested", domain.ErrConflict, doc.ID)
	}
	defer s.locks.unlock(doc.ID)

	n, err := removeDocument(ctx, s.docStore, s.registry, s.index, doc, s.now())
	if err != nil {
		return 0, err
	}
	checkpoint(ctx, s.index)
	return n, nil
}

// ReconcileResult summarises a Reconcile pass.
type ReconcileResult struct {
	Checked  int
	Restored int
	Failed   int
}

// Reconcile checks every processed document against the vector index,
// which loses entries when a snapshot is corrupt or a checkpoint never
// reached disk. Missing vectors are re-embedded from the chunk text in
// the registry. A document that cannot be restored is marked failed.
func (s *IngestService) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	result := &ReconcileResult{}
	for i := range docs {
		doc := &docs[i]
		if doc.Status != domain.StatusProcessed {
			continue
		}
		result.Checked++

		var missing []string
		for _, chunkID := range doc.ChunkIDs {
			if !s.index.Contains(chunkID) {
				missing = append(missing, chunkID)
			}
		}
		if len(missing) == 0 {
			continue
		}
		if !s.locks.tryLock(doc.ID) {
			continue
		}

		err := s.restore(ctx, doc, missing)
		if err != nil && ctx.Err() == nil {
			s.rollback(ctx, doc.ID, doc.ChunkIDs)
			_ = s.fail(ctx, doc, fmt.Errorf("restore index entries: %w", err))
			result.Failed++
		} else if err == nil {
			result.Restored++
		}
		s.locks.unlock(doc.ID)

		if ctx.Err() != nil {
			break
		}
	}

	if result.Restored+result.Failed > 0 {
		checkpoint(ctx, s.index)
		logger.Info("Reconciled index: %d documents restored, %d failed", result.Restored, result.Failed)
	}
	return result, ctx.Err()
}

// restore re-embeds and inserts the listed chunks of doc.
func (s *IngestService) restore(ctx context.Context, doc *domain.Document, chunkIDs []string) error {
	chunks, err := s.registry.GetChunks(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("get chunks: %w", err)
	}
	byID := make(map[string]string, len(chunks))
	for i := range chunks {
		byID[chunks[i].ID] = chunks[i].Content
	}

	texts := make([]string, len(chunkIDs))
	for i, id := range chunkIDs {
		text, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: chunk %s is missing from the registry", domain.ErrNotFound, id)
		}
		texts[i] = text
	}

	vectors, err := s.gateway.NewSession().Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	for i, id := range chunkIDs {
		if err := s.index.Insert(ctx, id, vectors[i]); err != nil {
			return fmt.Errorf("index chunk %s: %w", id, err)
		}
	}

	logger.Debug("Restored %d index entries for %s", len(chunkIDs), doc.ID)
	return nil
}

// findByPath returns the processed document ingested from path, or nil.
func (s *IngestService) findByPath(ctx context.Context, path string) (*domain.Document, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	for i := range docs {
		if docs[i].Path == path && docs[i].Status == domain.StatusProcessed {
			return &docs[i], nil
		}
	}
	return nil, nil
}

// fail marks doc failed and returns cause.
func (s *IngestService) fail(ctx context.Context, doc *domain.Document, cause error) error {
	logger.Warn("Ingestion of %s failed: %v", doc.ID, cause)

	doc.Status = domain.StatusFailed
	doc.ChunkIDs = nil
	doc.Error = cause.Error()
	doc.UpdatedAt = s.now()
	// The original context may be the reason for the failure.
	if err := s.docStore.SaveDocument(context.WithoutCancel(ctx), doc); err != nil {
		logger.Error("Failed to record failure of %s: %v", doc.ID, err)
	}

	metrics.RecordIngest(string(domain.StatusFailed), 0)
	return cause
}

// rollback removes whatever a failed ingestion wrote.
func (s *IngestService) rollback(ctx context.Context, documentID string, inserted []string) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range inserted {
		if err := s.index.Remove(ctx, id); err != nil {
			logger.Error("Rollback: remove vector %s: %v", id, err)
		}
	}
	if _, err := s.registry.DeleteByDocument(ctx, documentID); err != nil {
		logger.Error("Rollback: delete chunks of %s: %v", documentID, err)
	}
}

// removeDocument erases a document's chunks from the registry, tombstones
// its vectors and marks it deleted. It returns the number of chunks erased.
func removeDocument(
	ctx context.Context,
	docStore driven.DocumentStore,
	registry driven.ChunkRegistry,
	index driven.VectorIndex,
	doc *domain.Document,
	now time.Time,
) (int, error) {
	n, err := registry.DeleteByDocument(ctx, doc.ID)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}

	for _, chunkID := range doc.ChunkIDs {
		if err := index.Remove(ctx, chunkID); err != nil {
			// The registry is authoritative; a stale vector is filtered at retrieval.
			logger.Warn("Failed to tombstone vector %s: %v", chunkID, err)
		}
	}

	doc.Status = domain.StatusDeleted
	doc.ChunkIDs = nil
	doc.Error = ""
	doc.UpdatedAt = now
	if err := docStore.SaveDocument(ctx, doc); err != nil {
		return n, fmt.Errorf("save document: %w", err)
	}

	logger.Info("Deleted %s: %d chunks", doc.ID, n)
	return n, nil
}

// checkpoint persists the vector index snapshot and publishes its size.
// Failures are logged; the in-memory index remains authoritative.
func checkpoint(ctx context.Context, index driven.VectorIndex) {
	stats := index.Stats()
	metrics.SetIndexEntries(stats.Live, stats.Tombstoned)

	err := index.Persist(context.WithoutCancel(ctx))
	if err != nil && !errors.Is(err, domain.ErrNotImplemented) {
		logger.Warn("Failed to persist vector index: %v", err)
	}
}

func filenameFromPath(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return filepath.Base(path)
}
