package services

import (
	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driving"
	"github.com/alrouf-labs/marjaa-cli/internal/logger"
)

// Ensure Router implements the interface.
var _ driving.QueryRouter = (*Router)(nil)

// Router decides which language a question should be answered in.
// An explicit override always wins; otherwise the dominant script of the
// question decides, falling back to the configured default when the text
// contains no letters at all.
type Router struct {
	defaultLanguage domain.Language
}

// NewRouter creates a query router with the given fallback language.
func NewRouter(defaultLanguage domain.Language) *Router {
	if !defaultLanguage.IsValid() {
		defaultLanguage = domain.LanguageEnglish
	}
	return &Router{defaultLanguage: defaultLanguage}
}

// Route returns the answer language for a question.
func (r *Router) Route(question string, override domain.Language) domain.Language {
	if override != "" && override.IsValid() {
		logger.Debug("Router: explicit language %s", override)
		return override
	}

	if lang, ok := domain.DetectLanguage(question); ok {
		logger.Debug("Router: detected language %s", lang)
		return lang
	}

	logger.Debug("Router: detection inconclusive, defaulting to %s", r.defaultLanguage)
	return r.defaultLanguage
}
