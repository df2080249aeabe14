package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
)

// fakeSource replays a fixed document list, optionally ending the
// stream with a fetch-level error.
type fakeSource struct {
	docs     []domain.RawDocument
	fetchErr error

	// hang keeps both channels open and idle until the context ends,
	// modelling a slow remote.
	hang bool

	mu            sync.Mutex
	lastWatermark time.Time
}

var _ driven.DocumentSource = (*fakeSource)(nil)

func (s *fakeSource) FetchChangedSince(ctx context.Context, watermark time.Time) (<-chan domain.RawDocument, <-chan error) {
	s.mu.Lock()
	s.lastWatermark = watermark
	s.mu.Unlock()

	docsCh := make(chan domain.RawDocument)
	errsCh := make(chan error, 1)

	go func() {
		if s.hang {
			<-ctx.Done()
			return
		}
		defer close(docsCh)
		defer close(errsCh)
		for _, doc := range s.docs {
			select {
			case <-ctx.Done():
				return
			case docsCh <- doc:
			}
		}
		if s.fetchErr != nil {
			errsCh <- s.fetchErr
		}
	}()

	return docsCh, errsCh
}

func (s *fakeSource) Validate(context.Context) error { return nil }
func (s *fakeSource) Close() error                   { return nil }

// preclosedSource hands back channels that are already closed, with the
// fetch error buffered. Both select cases are ready from the first
// iteration, so the consumer must not miss the error whichever case
// fires first.
type preclosedSource struct {
	err error
}

var _ driven.DocumentSource = (*preclosedSource)(nil)

func (s *preclosedSource) FetchChangedSince(context.Context, time.Time) (<-chan domain.RawDocument, <-chan error) {
	docsCh := make(chan domain.RawDocument)
	close(docsCh)
	errsCh := make(chan error, 1)
	errsCh <- s.err
	close(errsCh)
	return docsCh, errsCh
}

func (s *preclosedSource) Validate(context.Context) error { return nil }
func (s *preclosedSource) Close() error                   { return nil }

func (s *fakeSource) watermarkSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWatermark
}

// fakeMetaStore is an in-memory metadata store with injectable failures.
type fakeMetaStore struct {
	mu        sync.Mutex
	pages     map[string]domain.PageMetadata
	watermark time.Time
	hasMark   bool

	getErr error
	putErr error
	setErr error
}

var _ driven.MetadataStore = (*fakeMetaStore)(nil)

func newFakeMetaStore() *fakeMetaStore {
	return &fakeMetaStore{pages: make(map[string]domain.PageMetadata)}
}

func (s *fakeMetaStore) GetPage(_ context.Context, pageID string) (*domain.PageMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	meta, ok := s.pages[pageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &meta, nil
}

func (s *fakeMetaStore) PutPage(_ context.Context, meta domain.PageMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.pages[meta.PageID] = meta
	return nil
}

func (s *fakeMetaStore) Watermark(context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasMark {
		return domain.DefaultWatermark, nil
	}
	return s.watermark, nil
}

func (s *fakeMetaStore) SetWatermark(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.watermark = t
	s.hasMark = true
	return nil
}

// stubNormaliser turns a raw document into one single-section canonical
// document, failing for IDs listed in failIDs.
type stubNormaliser struct {
	failIDs map[string]error
}

var _ driven.Normaliser = (*stubNormaliser)(nil)

func (n *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.CanonicalDocument, error) {
	if err, ok := n.failIDs[raw.ID]; ok {
		return nil, err
	}
	return &domain.CanonicalDocument{
		ID:          raw.ID,
		Version:     raw.Version,
		Title:       raw.Title,
		SpaceKey:    raw.SpaceKey,
		AncestorIDs: raw.AncestorIDs,
		Sections: []domain.Section{
			{Heading: raw.Title, Level: 1, Blocks: []domain.Block{
				{Type: domain.BlockParagraph, Content: "body of " + raw.ID},
			}},
		},
	}, nil
}

// stubChunker emits one chunk per section.
type stubChunker struct{}

var _ driven.Chunker = (*stubChunker)(nil)

func (stubChunker) Chunk(doc *domain.CanonicalDocument) ([]domain.Chunk, error) {
	chunks := make([]domain.Chunk, 0, len(doc.Sections))
	for _, section := range doc.Sections {
		text := ""
		for _, b := range section.Blocks {
			text += b.Content
		}
		chunks = append(chunks, domain.Chunk{
			ID:    doc.ID,
			DocID: doc.ID,
			Text:  text,
			Metadata: domain.ChunkMetadata{
				Title:          doc.Title,
				SpaceKey:       doc.SpaceKey,
				Version:        doc.Version,
				SectionHeading: section.Heading,
				SectionLevel:   section.Level,
			},
		})
	}
	total := len(chunks)
	for i := range chunks {
		chunks[i].ChunkIndex = i
		chunks[i].TotalChunks = total
	}
	return chunks, nil
}

// fakeEmbedder returns unit vectors and records the texts it saw.
type fakeEmbedder struct {
	mu    sync.Mutex
	texts []string
	err   error
	short bool // return one vector fewer than asked
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.texts = append(e.texts, texts...)
	n := len(texts)
	if e.short && n > 0 {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func (e *fakeEmbedder) Dimensions() int   { return 2 }
func (e *fakeEmbedder) ModelName() string { return "fake" }
func (e *fakeEmbedder) Close() error      { return nil }

// fakeIndex records upserts and deletes and replays canned search hits.
type fakeIndex struct {
	mu       sync.Mutex
	upserted []domain.Chunk
	deleted  []string
	hits     []driven.VectorHit

	lastLimit  int
	lastFilter *driven.VectorFilter
}

var _ driven.VectorIndex = (*fakeIndex)(nil)

func (f *fakeIndex) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(chunks) != len(vectors) {
		return domain.ErrInvalidInput
	}
	f.upserted = append(f.upserted, chunks...)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, limit int, filter *driven.VectorFilter) ([]driven.VectorHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	f.lastFilter = filter
	return f.hits, nil
}

func (f *fakeIndex) DeleteDoc(_ context.Context, docID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, docID)
	return nil
}

func (f *fakeIndex) Close() error { return nil }
