package domain

import "fmt"

// VATRate is the Saudi VAT rate applied to all quotations.
const VATRate = 0.15

// QuoteClient identifies the client a quotation is addressed to.
type QuoteClient struct {
	// Name is the client's name as it appears in the email draft.
	Name string `json:"name"`

	// Contact is the client's email address.
	Contact string `json:"contact"`

	// Lang is the client's preferred language for the primary draft.
	Lang Language `json:"lang"`
}

// QuoteItem is a single requested line in a quotation request.
type QuoteItem struct {
	// SKU is the product code.
	SKU string `json:"sku"`

	// Qty is the requested quantity. Must be positive.
	Qty int `json:"qty"`

	// UnitCost is the internal unit cost. Must be positive.
	UnitCost float64 `json:"unit_cost"`

	// MarginPct is the margin percentage applied on cost, in [0, 100].
	MarginPct float64 `json:"margin_pct"`
}

// Validate checks the item's pricing constraints.
func (i QuoteItem) Validate() error {
	if i.SKU == "" {
		return fmt.Errorf("%w: sku is required", ErrInvalidInput)
	}
	if i.Qty <= 0 {
		return fmt.Errorf("%w: qty must be positive", ErrInvalidInput)
	}
	if i.UnitCost <= 0 {
		return fmt.Errorf("%w: unit_cost must be positive", ErrInvalidInput)
	}
	if i.MarginPct < 0 || i.MarginPct > 100 {
		return fmt.Errorf("%w: margin_pct must be in [0, 100]", ErrInvalidInput)
	}
	return nil
}

// QuoteRequest is a quotation request for one client.
type QuoteRequest struct {
	// Client is the addressee.
	Client QuoteClient `json:"client"`

	// Currency is the quotation currency (default "SAR").
	Currency string `json:"currency"`

	// Items are the requested lines. At least one is required.
	Items []QuoteItem `json:"items"`

	// DeliveryTerms describes delivery conditions.
	DeliveryTerms string `json:"delivery_terms"`

	// Notes is optional free text carried into the drafts.
	Notes string `json:"notes,omitempty"`
}

// Validate checks the request and all its items.
func (r QuoteRequest) Validate() error {
	if r.Client.Name == "" {
		return fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}
	if r.Client.Lang != "" && !r.Client.Lang.IsValid() {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, r.Client.Lang)
	}
	for n, item := range r.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", n, err)
		}
	}
	return nil
}

// QuoteLine is a priced line in a quotation.
type QuoteLine struct {
	// SKU is the product code.
	SKU string `json:"sku"`

	// Quantity is the quoted quantity.
	Quantity int `json:"quantity"`

	// UnitCost is the internal unit cost, rounded to 2 decimals.
	UnitCost float64 `json:"unit_cost"`

	// MarginPct is the applied margin percentage.
	MarginPct float64 `json:"margin_pct"`

	// UnitPrice is cost plus margin, rounded to 2 decimals.
	UnitPrice float64 `json:"unit_price"`

	// LineTotal is unit price times quantity, rounded to 2 decimals.
	LineTotal float64 `json:"line_total"`
}

// EmailDraft carries the bilingual quotation emails: the primary draft in
// the client's language and the alternate in the other supported language.
type EmailDraft struct {
	// Primary is the draft in the requested language.
	Primary string `json:"primary"`

	// Alternate is the draft in the other supported language.
	Alternate string `json:"alternate"`

	// RequestedLanguage is the primary draft's language code.
	RequestedLanguage string `json:"requested_language"`
}

// Quote is a complete priced quotation.
type Quote struct {
	// ID is the quote reference ("QR" + 8 uppercase hex).
	ID string `json:"quote_id"`

	// Client is the addressee.
	Client QuoteClient `json:"client"`

	// Currency is the quotation currency.
	Currency string `json:"currency"`

	// Lines are the priced lines.
	Lines []QuoteLine `json:"items"`

	// Subtotal is the sum of line totals before tax.
	Subtotal float64 `json:"subtotal"`

	// TotalTax is the VAT amount.
	TotalTax float64 `json:"total_tax"`

	// GrandTotal is subtotal plus tax.
	GrandTotal float64 `json:"grand_total"`

	// DeliveryTerms describes delivery conditions.
	DeliveryTerms string `json:"delivery_terms"`

	// EmailDraft carries the bilingual drafts.
	EmailDraft EmailDraft `json:"email_draft"`

	// Notes is optional free text.
	Notes string `json:"notes,omitempty"`
}
