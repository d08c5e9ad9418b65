package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

func testDoc(content string) *domain.Document {
	return &domain.Document{
		ID:       domain.ContentHash(content),
		Content:  content,
		Language: domain.LanguageEnglish,
	}
}

func TestProcess_EmptyContent(t *testing.T) {
	p := New()

	chunks, err := p.Process(context.Background(), testDoc(""), nil)
	require.NoError(t, err)
	assert.Nil(t, chunks)

	chunks, err = p.Process(context.Background(), testDoc("   \n\n  "), nil)
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestProcess_ShortContentSingleChunk(t *testing.T) {
	p := New()
	doc := testDoc("A short policy document.")

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	chunk := chunks[0]
	assert.Equal(t, doc.Content, chunk.Content)
	assert.Equal(t, 0, chunk.Position)
	assert.Equal(t, 0, chunk.StartOffset)
	assert.Equal(t, len(doc.Content), chunk.EndOffset)
	assert.Equal(t, domain.LanguageEnglish, chunk.Language)
}

func TestProcess_OffsetsSliceBackToContent(t *testing.T) {
	p := New(WithMaxChunkSize(100), WithMinChunkSize(30), WithOverlap(20))

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Sentence number with several words in it. ")
	}
	doc := testDoc(b.String())

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Position)
		assert.Equal(t, doc.Content[chunk.StartOffset:chunk.EndOffset], chunk.Content, "chunk %d", i)
		assert.LessOrEqual(t, chunk.EndOffset-chunk.StartOffset, 100, "chunk %d exceeds max", i)
	}

	// Consecutive chunks overlap.
	for i := 1; i < len(chunks); i++ {
		assert.Less(t, chunks[i].StartOffset, chunks[i-1].EndOffset, "chunk %d does not overlap", i)
	}

	// Final chunk reaches the end of the document.
	assert.Equal(t, len(doc.Content), chunks[len(chunks)-1].EndOffset)
}

func TestProcess_PrefersParagraphBoundaries(t *testing.T) {
	p := New(WithMaxChunkSize(120), WithMinChunkSize(20), WithOverlap(0))

	para1 := strings.Repeat("alpha ", 10) // 60 bytes
	para2 := strings.Repeat("beta ", 10)
	doc := testDoc(para1 + "\n\n" + para2 + "\n\n" + strings.Repeat("gamma ", 10))

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// First cut lands right after a paragraph break.
	first := chunks[0]
	assert.True(t, strings.HasSuffix(first.Content, "\n\n"),
		"expected paragraph-aligned cut, got %q", first.Content[len(first.Content)-10:])
}

func TestProcess_SentenceBoundaryFallback(t *testing.T) {
	p := New(WithMaxChunkSize(80), WithMinChunkSize(20), WithOverlap(0))

	// No paragraph breaks, only sentences.
	doc := testDoc("First sentence here. Second sentence follows it. Third one is longer than the rest. Fourth closes.")

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	first := strings.TrimRight(chunks[0].Content, " ")
	assert.True(t, strings.HasSuffix(first, "."),
		"expected sentence-aligned cut, got %q", first)
}

func TestProcess_HardCutNeverSplitsRunes(t *testing.T) {
	p := New(WithMaxChunkSize(50), WithMinChunkSize(10), WithOverlap(5))

	// Unbroken Arabic text, no spaces: forces hard cuts through
	// multi-byte runes.
	doc := testDoc(strings.Repeat("ضمان", 60))
	doc.Language = domain.LanguageArabic

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk.Content), "chunk %d splits a rune", i)
		assert.Equal(t, doc.Content[chunk.StartOffset:chunk.EndOffset], chunk.Content)
	}
}

func TestProcess_ArabicSentenceBoundary(t *testing.T) {
	p := New(WithMaxChunkSize(120), WithMinChunkSize(20), WithOverlap(0))

	sentence := "تأتي أعمدة الإنارة بضمان لمدة عشر سنوات؟ "
	doc := testDoc(strings.Repeat(sentence, 6))
	doc.Language = domain.LanguageArabic

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	assert.Equal(t, domain.LanguageArabic, chunks[0].Language)
	first := strings.TrimRight(chunks[0].Content, " ")
	assert.True(t, strings.HasSuffix(first, "؟"), "expected Arabic sentence cut, got %q", first)
}

func TestProcess_DeterministicIDs(t *testing.T) {
	p := New()
	doc := testDoc(strings.Repeat("Stable content. ", 200))

	first, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	second, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	// Different documents get different IDs at the same position.
	other := testDoc(strings.Repeat("Other content. ", 200))
	otherChunks, err := p.Process(context.Background(), other, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, otherChunks[0].ID)
}

func TestProcess_InheritsDocumentLanguageWhenInconclusive(t *testing.T) {
	p := New(WithMaxChunkSize(10), WithMinChunkSize(2), WithOverlap(0))

	doc := testDoc("12345 678 90123 456")
	doc.Language = domain.LanguageArabic

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, domain.LanguageArabic, chunk.Language)
	}
}

func TestNew_SanitisesBadConfig(t *testing.T) {
	// min >= max and overlap >= max get clamped rather than looping forever.
	p := New(WithMaxChunkSize(100), WithMinChunkSize(100), WithOverlap(150))
	doc := testDoc(strings.Repeat("word ", 100))

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}
