// Package flat provides an exact, in-memory vector index with an atomic
// snapshot file for persistence.
//
// Search scans every entry, which is exact and fast enough for the corpus
// sizes an internal knowledge base reaches (tens of thousands of chunks).
// The snapshot is written to a temp file and renamed into place, so a crash
// mid-write never corrupts the previous snapshot.
package flat

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
	"github.com/alrouf-labs/marjaa-cli/internal/logger"
)

const (
	// snapshotMagic identifies a flat index snapshot file.
	snapshotMagic uint32 = 0x4D524A56 // "MRJV"

	// snapshotSchemaVersion is bumped on incompatible format changes.
	snapshotSchemaVersion uint32 = 1
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is a stored vector with its metadata and precomputed norm.
type entry struct {
	domain.VectorEntry
	norm float64
	seq  uint64 // insertion order, breaks similarity ties
}

// Index is a flat exact-scan vector index.
type Index struct {
	dimensions int
	metric     domain.SimilarityMetric
	path       string

	mu      sync.RWMutex
	entries []entry
	byChunk map[string]int // chunk ID -> position in entries
	nextSeq uint64
}

// New creates a flat index with fixed dimensions and metric.
// path is the snapshot file location; empty disables persistence.
func New(dimensions int, metric domain.SimilarityMetric, path string) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidInput, metric)
	}
	return &Index{
		dimensions: dimensions,
		metric:     metric,
		path:       path,
		byChunk:    make(map[string]int),
	}, nil
}

// Upsert inserts entries, replacing existing chunk IDs.
// The batch is validated before anything is applied: one bad vector
// rejects the whole batch and leaves the index unchanged.
func (idx *Index) Upsert(_ context.Context, entries []domain.VectorEntry) error {
	for i := range entries {
		if len(entries[i].Vector) != idx.dimensions {
			return fmt.Errorf("%w: entry %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, entries[i].ChunkID, len(entries[i].Vector), idx.dimensions)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i := range entries {
		e := entry{
			VectorEntry: entries[i],
			norm:        vectorNorm(entries[i].Vector),
		}
		if pos, ok := idx.byChunk[e.ChunkID]; ok {
			e.seq = idx.entries[pos].seq // replacement keeps its position in tie-breaks
			idx.entries[pos] = e
			continue
		}
		e.seq = idx.nextSeq
		idx.nextSeq++
		idx.byChunk[e.ChunkID] = len(idx.entries)
		idx.entries = append(idx.entries, e)
	}
	return nil
}

// DeleteDocument removes all entries belonging to a document.
func (idx *Index) DeleteDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.entries[:0]
	for i := range idx.entries {
		if idx.entries[i].DocumentID != documentID {
			kept = append(kept, idx.entries[i])
		}
	}
	idx.entries = kept

	idx.byChunk = make(map[string]int, len(idx.entries))
	for i := range idx.entries {
		idx.byChunk[idx.entries[i].ChunkID] = i
	}
	return nil
}

// Search returns the k entries most similar to the query, filtered.
// Results are ordered by non-increasing similarity; ties break by
// insertion order so repeated queries are deterministic.
func (idx *Index) Search(_ context.Context, query []float32, k int, filter domain.SearchFilter) ([]driven.VectorHit, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	queryNorm := vectorNorm(query)

	type scored struct {
		hit driven.VectorHit
		seq uint64
	}
	results := make([]scored, 0, len(idx.entries))
	for i := range idx.entries {
		e := &idx.entries[i]
		if !filter.Matches(&e.VectorEntry) {
			continue
		}
		results = append(results, scored{
			hit: driven.VectorHit{
				ChunkID:    e.ChunkID,
				DocumentID: e.DocumentID,
				Similarity: idx.similarity(query, queryNorm, e),
			},
			seq: e.seq,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].hit.Similarity != results[j].hit.Similarity {
			return results[i].hit.Similarity > results[j].hit.Similarity
		}
		return results[i].seq < results[j].seq
	})

	if k > len(results) {
		k = len(results)
	}
	hits := make([]driven.VectorHit, k)
	for i := range hits {
		hits[i] = results[i].hit
	}
	return hits, nil
}

// similarity scores an entry against the query under the index metric.
func (idx *Index) similarity(query []float32, queryNorm float64, e *entry) float64 {
	switch idx.metric {
	case domain.MetricEuclidean:
		var sum float64
		for i := range query {
			d := float64(query[i]) - float64(e.Vector[i])
			sum += d * d
		}
		return 1 / (1 + math.Sqrt(sum))
	default: // cosine
		if queryNorm == 0 || e.norm == 0 {
			return 0
		}
		var dot float64
		for i := range query {
			dot += float64(query[i]) * float64(e.Vector[i])
		}
		return dot / (queryNorm * e.norm)
	}
}

// Count returns the number of entries.
func (idx *Index) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

// Dimensions returns the fixed vector dimensionality.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}

// Close releases resources. The in-memory index has none; callers should
// Persist explicitly before closing.
func (idx *Index) Close() error {
	return nil
}

// Persist writes an atomic snapshot: temp file in the same directory, then
// rename over the target. Readers of the old snapshot are never exposed to
// a partial write.
func (idx *Index) Persist(_ context.Context) error {
	if idx.path == "" {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(idx.path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(idx.path), ".marjaa-index-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := idx.writeSnapshot(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), idx.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	logger.Debug("Persisted %d vectors to %s", len(idx.entries), idx.path)
	return nil
}

// Load restores the index from its snapshot.
// A missing snapshot leaves the index empty. A snapshot with a different
// schema version or dimension fails with domain.ErrIncompatibleIndexVersion.
func (idx *Index) Load(_ context.Context) error {
	if idx.path == "" {
		return nil
	}

	f, err := os.Open(idx.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Fresh index
		}
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	entries, err := idx.readSnapshot(f)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = entries
	idx.byChunk = make(map[string]int, len(entries))
	idx.nextSeq = 0
	for i := range entries {
		idx.byChunk[entries[i].ChunkID] = i
		if entries[i].seq >= idx.nextSeq {
			idx.nextSeq = entries[i].seq + 1
		}
	}
	logger.Debug("Loaded %d vectors from %s", len(entries), idx.path)
	return nil
}

// writeSnapshot serialises the index. Layout, all little-endian:
// magic, schema version, metric string, dimensions, entry count, then per
// entry: chunk ID, document ID, language, seq, vector.
func (idx *Index) writeSnapshot(w io.Writer) error {
	for _, v := range []uint32{snapshotMagic, snapshotSchemaVersion} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := writeString(w, string(idx.metric)); err != nil {
		return err
	}
	for _, v := range []uint32{uint32(idx.dimensions), uint32(len(idx.entries))} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	for i := range idx.entries {
		e := &idx.entries[i]
		for _, s := range []string{e.ChunkID, e.DocumentID, string(e.Language)} {
			if err := writeString(w, s); err != nil {
				return err
			}
		}
		if err := binary.Write(w, binary.LittleEndian, e.seq); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, e.Vector); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) readSnapshot(r io.Reader) ([]entry, error) {
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("%w: not a vector index snapshot", domain.ErrIncompatibleIndexVersion)
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != snapshotSchemaVersion {
		return nil, fmt.Errorf("%w: snapshot schema v%d, supported v%d",
			domain.ErrIncompatibleIndexVersion, version, snapshotSchemaVersion)
	}

	metric, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("read metric: %w", err)
	}
	if domain.SimilarityMetric(metric) != idx.metric {
		return nil, fmt.Errorf("%w: snapshot metric %q, index metric %q",
			domain.ErrIncompatibleIndexVersion, metric, idx.metric)
	}

	var dimensions, count uint32
	if err := binary.Read(r, binary.LittleEndian, &dimensions); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if int(dimensions) != idx.dimensions {
		return nil, fmt.Errorf("%w: snapshot has %d dimensions, index has %d",
			domain.ErrIncompatibleIndexVersion, dimensions, idx.dimensions)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}

	entries := make([]entry, 0, count)
	for range count {
		var e entry
		if e.ChunkID, err = readString(r); err != nil {
			return nil, fmt.Errorf("read chunk id: %w", err)
		}
		if e.DocumentID, err = readString(r); err != nil {
			return nil, fmt.Errorf("read document id: %w", err)
		}
		lang, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read language: %w", err)
		}
		e.Language = domain.Language(lang)
		if err := binary.Read(r, binary.LittleEndian, &e.seq); err != nil {
			return nil, fmt.Errorf("read seq: %w", err)
		}
		e.Vector = make([]float32, idx.dimensions)
		if err := binary.Read(r, binary.LittleEndian, e.Vector); err != nil {
			return nil, fmt.Errorf("read vector: %w", err)
		}
		e.norm = vectorNorm(e.Vector)
		entries = append(entries, e)
	}
	return entries, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// vectorNorm computes the L2 norm.
func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
