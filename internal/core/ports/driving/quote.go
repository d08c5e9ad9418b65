package driving

import (
	"context"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

// QuoteService prices quotation requests and drafts customer emails.
type QuoteService interface {
	// CreateQuote validates the request, prices every line item, applies
	// VAT, and drafts a bilingual customer email.
	// Returns domain.ErrInvalidInput (wrapped with field detail) when the
	// request fails validation.
	CreateQuote(ctx context.Context, req *domain.QuoteRequest) (*domain.Quote, error)
}
