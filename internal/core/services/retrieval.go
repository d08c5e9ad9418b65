package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driving"
	"github.com/alrouf-labs/marjaa-cli/internal/logger"
)

// sourcePreviewLen bounds the chunk text carried in answer sources.
const sourcePreviewLen = 300

// Ensure RetrievalService implements the interface.
var _ driving.AskService = (*RetrievalService)(nil)

// RetrievalService answers questions from the indexed knowledge base.
//
// The query pipeline: route language, embed the question, search the vector
// index, drop hits below the similarity threshold, assemble a bounded
// context, and generate a grounded answer. Generation is optional - when no
// LLM is configured, Ask returns the context and sources without an answer.
type RetrievalService struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	llm         driven.LLMService
	prompts     driven.PromptStore
	router      driving.QueryRouter
	settings    domain.RetrievalSettings
}

// NewRetrievalService creates a retrieval service.
// The llm may be nil; queries then return retrieved context only.
func NewRetrievalService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	router driving.QueryRouter,
	settings domain.RetrievalSettings,
) *RetrievalService {
	return &RetrievalService{
		docStore:    docStore,
		vectorIndex: vectorIndex,
		embedder:    embedder,
		llm:         llm,
		prompts:     prompts,
		router:      router,
		settings:    settings,
	}
}

// Ask answers a question from the indexed knowledge base.
func (s *RetrievalService) Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	lang := s.router.Route(question, opts.Language)
	logger.Section("Retrieval")
	logger.Info("Question (%s): %s", lang, question)

	sources, err := s.retrieve(ctx, question, lang, opts)
	if err != nil {
		return nil, err
	}

	answerContext := s.assembleContext(ctx, sources)

	answer := &domain.Answer{
		Question:       question,
		Context:        answerContext,
		Language:       lang,
		Sources:        sources,
		EmbeddingModel: s.embedder.ModelName(),
	}

	if opts.SkipGeneration || s.llm == nil {
		answer.Elapsed = time.Since(start)
		return answer, nil
	}

	generated, err := s.generate(ctx, question, answerContext, lang)
	if err != nil {
		return nil, err
	}

	answer.Answer = generated
	answer.GenerationModel = s.llm.ModelName()
	answer.Elapsed = time.Since(start)
	return answer, nil
}

// Retrieve runs only the retrieval stage.
func (s *RetrievalService) Retrieve(ctx context.Context, question string, opts domain.AskOptions) ([]domain.RetrievedChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	lang := s.router.Route(question, opts.Language)
	return s.retrieve(ctx, question, lang, opts)
}

// retrieve embeds the question, searches the index and hydrates the
// surviving hits. Returns domain.ErrNoRelevantContext when nothing clears
// the similarity threshold.
func (s *RetrievalService) retrieve(ctx context.Context, question string, lang domain.Language, opts domain.AskOptions) ([]domain.RetrievedChunk, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = s.settings.TopK
	}
	threshold := s.settings.MinSimilarity
	if opts.MinSimilarity != nil {
		threshold = *opts.MinSimilarity
	}

	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured. Run 'marjaa settings' to fix",
			domain.ErrEmbeddingUnavailable)
	}

	queryVector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	var filter domain.SearchFilter
	if s.settings.SameLanguageOnly {
		filter.Language = lang
	}

	hits, err := s.vectorIndex.Search(ctx, queryVector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	kept := hits[:0]
	for _, hit := range hits {
		if hit.Similarity >= threshold {
			kept = append(kept, hit)
		}
	}
	logger.Debug("Retrieved %d hits, %d above threshold %.2f", len(hits), len(kept), threshold)

	if len(kept) == 0 {
		return nil, domain.ErrNoRelevantContext
	}

	return s.hydrateHits(ctx, kept)
}

// hydrateHits loads chunk content and document metadata for search hits.
// Hits whose chunk has been deleted since indexing are dropped.
func (s *RetrievalService) hydrateHits(ctx context.Context, hits []driven.VectorHit) ([]domain.RetrievedChunk, error) {
	results := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.docStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("Stale index entry for chunk %s, skipping", hit.ChunkID)
				continue
			}
			return nil, fmt.Errorf("get chunk: %w", err)
		}

		retrieved := domain.RetrievedChunk{
			ChunkID:     chunk.ID,
			DocumentID:  chunk.DocumentID,
			StartOffset: chunk.StartOffset,
			EndOffset:   chunk.EndOffset,
			Content:     chunk.Content,
			Score:       hit.Similarity,
		}

		if doc, err := s.docStore.GetDocument(ctx, chunk.DocumentID); err == nil {
			retrieved.URI = doc.URI
		}

		results = append(results, retrieved)
	}

	if len(results) == 0 {
		return nil, domain.ErrNoRelevantContext
	}
	return results, nil
}

// assembleContext joins chunk contents into a bounded generation context.
// Chunks are appended most relevant first until the budget is spent; the
// last partially fitting chunk is truncated rather than dropped, at a
// UTF-8 boundary so Arabic text is never split mid-rune.
// Source previews are trimmed in place as a side effect.
func (s *RetrievalService) assembleContext(_ context.Context, sources []domain.RetrievedChunk) string {
	budget := s.settings.MaxContextChars
	if budget <= 0 {
		budget = 4000
	}

	var b strings.Builder
	for i := range sources {
		content := sources[i].Content
		sources[i].Content = preview(content, sourcePreviewLen)

		remaining := budget - b.Len()
		if b.Len() > 0 {
			remaining -= len("\n\n")
		}
		if remaining <= 0 {
			break
		}
		if len(content) > remaining {
			content = truncateToBytes(content, remaining)
			if content == "" {
				break
			}
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(content)
	}
	return b.String()
}

// truncateToBytes returns the longest prefix of text within max bytes that
// does not split a UTF-8 sequence.
func truncateToBytes(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && (text[cut]&0xC0) == 0x80 {
		cut--
	}
	return text[:cut]
}

// generate produces the grounded answer in the routed language.
// Arabic answers are verified to contain Arabic script; if not, generation
// is retried once with a stronger prompt and that result is returned.
func (s *RetrievalService) generate(ctx context.Context, question, answerContext string, lang domain.Language) (string, error) {
	promptName := driven.PromptAnswerEN
	if lang == domain.LanguageArabic {
		promptName = driven.PromptAnswerAR
	}

	answer, err := s.generateWith(ctx, promptName, answerContext, question)
	if err != nil {
		return "", err
	}

	if lang == domain.LanguageArabic && !domain.ContainsArabic(answer) {
		logger.Warn("Arabic answer contained no Arabic script, retrying with stronger prompt")
		retried, err := s.generateWith(ctx, driven.PromptAnswerARRetry, answerContext, question)
		if err != nil {
			return "", err
		}
		return retried, nil
	}

	return answer, nil
}

func (s *RetrievalService) generateWith(ctx context.Context, promptName, answerContext, question string) (string, error) {
	template, err := s.prompts.Load(promptName)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", promptName, err)
	}

	prompt := fmt.Sprintf(template, answerContext, question)
	answer, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return strings.TrimSpace(answer), nil
}

// preview returns a rune-safe prefix of text for display.
func preview(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
