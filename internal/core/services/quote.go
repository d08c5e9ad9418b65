package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driving"
	"github.com/alrouf-labs/marjaa-cli/internal/logger"
)

// defaultCurrency is used when a quotation request omits the currency.
const defaultCurrency = "SAR"

// Ensure QuoteBuilder implements the interface.
var _ driving.QuoteService = (*QuoteBuilder)(nil)

// QuoteBuilder prices quotation requests and drafts customer emails.
//
// Pricing per line: unit price = cost * (1 + margin/100), line total =
// unit price * quantity, both rounded to 2 decimals. VAT is applied on the
// subtotal. Each quote gets a bilingual email draft: the primary in the
// client's language and an alternate in the other supported language.
type QuoteBuilder struct {
	companyName string
}

// NewQuoteBuilder creates a quote service.
// companyName appears in the email signatures.
func NewQuoteBuilder(companyName string) *QuoteBuilder {
	if companyName == "" {
		companyName = "Alrouf Lighting Technology"
	}
	return &QuoteBuilder{companyName: companyName}
}

// CreateQuote validates, prices and drafts a quotation.
func (q *QuoteBuilder) CreateQuote(_ context.Context, req *domain.QuoteRequest) (*domain.Quote, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", domain.ErrInvalidInput)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	lines := make([]domain.QuoteLine, 0, len(req.Items))
	var subtotal float64
	for _, item := range req.Items {
		unitPrice := round2(item.UnitCost * (1 + item.MarginPct/100))
		lineTotal := round2(unitPrice * float64(item.Qty))
		lines = append(lines, domain.QuoteLine{
			SKU:       item.SKU,
			Quantity:  item.Qty,
			UnitCost:  round2(item.UnitCost),
			MarginPct: item.MarginPct,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
		})
		subtotal += lineTotal
	}
	subtotal = round2(subtotal)
	tax := round2(subtotal * domain.VATRate)
	grandTotal := round2(subtotal + tax)

	id, err := newQuoteID()
	if err != nil {
		return nil, fmt.Errorf("generate quote id: %w", err)
	}

	quote := &domain.Quote{
		ID:            id,
		Client:        req.Client,
		Currency:      currency,
		Lines:         lines,
		Subtotal:      subtotal,
		TotalTax:      tax,
		GrandTotal:    grandTotal,
		DeliveryTerms: req.DeliveryTerms,
		Notes:         req.Notes,
	}
	quote.EmailDraft = q.draftEmails(quote)

	logger.Debug("Quote %s: %d lines, %s %.2f total", id, len(lines), currency, grandTotal)
	return quote, nil
}

// draftEmails builds the bilingual email drafts for a quote.
// The primary draft is in the client's language (default English); the
// alternate always covers the other language so sales can reply either way.
func (q *QuoteBuilder) draftEmails(quote *domain.Quote) domain.EmailDraft {
	lang := quote.Client.Lang
	if !lang.IsValid() {
		lang = domain.LanguageEnglish
	}

	drafts := map[domain.Language]string{
		domain.LanguageEnglish: q.draftEnglish(quote),
		domain.LanguageArabic:  q.draftArabic(quote),
	}

	return domain.EmailDraft{
		Primary:           drafts[lang],
		Alternate:         drafts[lang.Other()],
		RequestedLanguage: lang.String(),
	}
}

func (q *QuoteBuilder) draftEnglish(quote *domain.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", quote.Client.Name)
	fmt.Fprintf(&b, "Thank you for your inquiry. Please find our quotation %s below:\n\n", quote.ID)
	for _, line := range quote.Lines {
		fmt.Fprintf(&b, "- %s: %d units @ %.2f %s each = %.2f %s\n",
			line.SKU, line.Quantity, line.UnitPrice, quote.Currency, line.LineTotal, quote.Currency)
	}
	fmt.Fprintf(&b, "\nSubtotal: %.2f %s\n", quote.Subtotal, quote.Currency)
	fmt.Fprintf(&b, "VAT (%.0f%%): %.2f %s\n", domain.VATRate*100, quote.TotalTax, quote.Currency)
	fmt.Fprintf(&b, "Grand Total: %.2f %s\n", quote.GrandTotal, quote.Currency)
	if quote.DeliveryTerms != "" {
		fmt.Fprintf(&b, "\nDelivery: %s\n", quote.DeliveryTerms)
	}
	if quote.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", quote.Notes)
	}
	fmt.Fprintf(&b, "\nBest regards,\n%s", q.companyName)
	return b.String()
}

func (q *QuoteBuilder) draftArabic(quote *domain.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "السيد/السيدة %s المحترم/المحترمة،\n\n", quote.Client.Name)
	fmt.Fprintf(&b, "شكراً لاستفساركم. نرفق لكم عرض السعر رقم %s:\n\n", quote.ID)
	for _, line := range quote.Lines {
		fmt.Fprintf(&b, "- %s: %d وحدة بسعر %.2f %s للوحدة = %.2f %s\n",
			line.SKU, line.Quantity, line.UnitPrice, quote.Currency, line.LineTotal, quote.Currency)
	}
	fmt.Fprintf(&b, "\nالمجموع الفرعي: %.2f %s\n", quote.Subtotal, quote.Currency)
	fmt.Fprintf(&b, "ضريبة القيمة المضافة (%.0f%%): %.2f %s\n", domain.VATRate*100, quote.TotalTax, quote.Currency)
	fmt.Fprintf(&b, "الإجمالي: %.2f %s\n", quote.GrandTotal, quote.Currency)
	if quote.DeliveryTerms != "" {
		fmt.Fprintf(&b, "\nالتسليم: %s\n", quote.DeliveryTerms)
	}
	if quote.Notes != "" {
		fmt.Fprintf(&b, "\nملاحظات: %s\n", quote.Notes)
	}
	fmt.Fprintf(&b, "\nمع أطيب التحيات،\n%s", q.companyName)
	return b.String()
}

// newQuoteID generates a quote reference: "QR" + 8 uppercase hex characters.
func newQuoteID() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return "QR" + strings.ToUpper(hex.EncodeToString(buf[:])), nil
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
