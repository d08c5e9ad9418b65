package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
	"github.com/alrouf-labs/marjaa-cli/internal/normalisers/markdown"
	"github.com/alrouf-labs/marjaa-cli/internal/normalisers/plaintext"
)

// stubNormaliser claims a MIME type with a given priority and tags the
// result so tests can see which normaliser ran.
type stubNormaliser struct {
	mimeTypes []string
	priority  int
	tag       string
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.mimeTypes }
func (s *stubNormaliser) Priority() int                { return s.priority }

func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:      domain.ContentHash(string(raw.Content)),
			Content: string(raw.Content),
			Title:   s.tag,
		},
	}, nil
}

func TestRegistry_DispatchesByMIMEType(t *testing.T) {
	registry := NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())

	result, err := registry.Normalise(context.Background(), &domain.RawDocument{
		URI:      "file:///srv/kb/doc.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Heading\n\nBody."),
	})
	require.NoError(t, err)
	assert.Equal(t, "markdown", result.Document.Metadata["format"])
}

func TestRegistry_HighestPriorityWins(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubNormaliser{mimeTypes: []string{"text/plain"}, priority: 5, tag: "fallback"})
	registry.Register(&stubNormaliser{mimeTypes: []string{"text/plain"}, priority: 50, tag: "specific"})

	result, err := registry.Normalise(context.Background(), &domain.RawDocument{
		MIMEType: "text/plain",
		Content:  []byte("content"),
	})
	require.NoError(t, err)
	assert.Equal(t, "specific", result.Document.Title)
}

func TestRegistry_UnsupportedMIMEType(t *testing.T) {
	registry := NewRegistry()
	registry.Register(plaintext.New())

	_, err := registry.Normalise(context.Background(), &domain.RawDocument{
		MIMEType: "application/octet-stream",
		Content:  []byte{0x00, 0x01},
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_NilDocument(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_SupportedMIMETypes(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubNormaliser{mimeTypes: []string{"text/plain", "text/csv"}, priority: 5})
	registry.Register(&stubNormaliser{mimeTypes: []string{"text/markdown", "text/plain"}, priority: 50})

	types := registry.SupportedMIMETypes()
	assert.Equal(t, []string{"text/csv", "text/markdown", "text/plain"}, types)
}
