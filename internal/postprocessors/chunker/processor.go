// Package chunker provides a boundary-aware text chunking processor.
package chunker

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Default chunking parameters, in bytes.
const (
	DefaultMaxChunkSize = 1000
	DefaultMinChunkSize = 200
	DefaultOverlap      = 200
)

// Processor splits document content into chunks at natural boundaries.
// It prefers paragraph breaks, then sentence ends, then word breaks,
// and hard-cuts only when no boundary fits between the minimum and
// maximum chunk size. Offsets are byte positions into the document
// content; cuts never split a UTF-8 rune.
type Processor struct {
	maxChunkSize int
	minChunkSize int
	overlap      int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxChunkSize sets the upper bound on chunk length in bytes.
func WithMaxChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.maxChunkSize = size
		}
	}
}

// WithMinChunkSize sets the lower bound on chunk length in bytes.
// Only a document's final chunk may be shorter.
func WithMinChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.minChunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxChunkSize: DefaultMaxChunkSize,
		minChunkSize: DefaultMinChunkSize,
		overlap:      DefaultOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Keep the invariants sane regardless of configuration.
	if p.minChunkSize >= p.maxChunkSize {
		p.minChunkSize = p.maxChunkSize / 4
	}
	if p.overlap >= p.maxChunkSize {
		p.overlap = p.maxChunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from
// document content. Chunk IDs are deterministic (UUIDv5 of document ID
// and position), so re-chunking unchanged content yields identical IDs.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	content := doc.Content
	if strings.TrimSpace(content) == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	contentLen := len(content)
	estimated := contentLen/(p.maxChunkSize-p.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	position := 0
	start := 0

	for start < contentLen {
		end := start + p.maxChunkSize
		if end >= contentLen {
			end = contentLen
		} else {
			end = p.cutPoint(content, start, end)
		}

		chunkContent := content[start:end]
		chunks = append(chunks, domain.Chunk{
			ID:          ChunkID(doc.ID, position),
			DocumentID:  doc.ID,
			Content:     chunkContent,
			Position:    position,
			StartOffset: start,
			EndOffset:   end,
			Language:    chunkLanguage(chunkContent, doc.Language),
		})
		position++

		if end == contentLen {
			break
		}

		next := end - p.overlap
		if next <= start {
			next = start + 1
		}
		// Never start a chunk inside a rune.
		for next < contentLen && !utf8.RuneStart(content[next]) {
			next++
		}
		start = next
	}

	return chunks, nil
}

// ChunkID derives a deterministic chunk ID from the document ID and
// chunk position.
func ChunkID(documentID string, position int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(documentID+":"+strconv.Itoa(position))).String()
}

// cutPoint finds the best boundary in (start+minChunkSize, end].
// Preference order: paragraph break, sentence end, word break, hard cut.
func (p *Processor) cutPoint(content string, start, end int) int {
	lo := start + p.minChunkSize
	if lo >= end {
		lo = start
	}
	window := content[lo:end]

	// Paragraph break: cut after the blank line.
	if idx := strings.LastIndex(window, "\n\n"); idx >= 0 && lo+idx+2 > start {
		return lo + idx + 2
	}

	// Sentence end: cut after the last terminator followed by whitespace.
	if cut := lastSentenceEnd(window); cut >= 0 && lo+cut > start {
		return lo + cut
	}

	// Word break: cut after the last whitespace.
	if idx := strings.LastIndexAny(window, " \t\n"); idx >= 0 && lo+idx+1 > start {
		return lo + idx + 1
	}

	// Hard cut, backed up to a rune boundary.
	cut := end
	for cut > start+1 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return cut
}

// lastSentenceEnd returns the byte offset just past the last sentence
// terminator in window that is followed by whitespace or the window end.
// Returns -1 when no terminator qualifies.
func lastSentenceEnd(window string) int {
	best := -1
	for i, r := range window {
		if !isSentenceEnd(r) {
			continue
		}
		after := i + utf8.RuneLen(r)
		if after >= len(window) || window[after] == ' ' || window[after] == '\n' || window[after] == '\t' {
			best = after
		}
	}
	return best
}

// isSentenceEnd reports whether r terminates a sentence in English or
// Arabic text.
func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '؟', '۔', '؛':
		return true
	default:
		return false
	}
}

// chunkLanguage detects the chunk's language, inheriting the document
// language when the chunk alone is inconclusive.
func chunkLanguage(content string, docLanguage domain.Language) domain.Language {
	if lang, ok := domain.DetectLanguage(content); ok {
		return lang
	}
	return docLanguage
}
