package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

// mockQuoteService implements driving.QuoteService for testing.
type mockQuoteService struct {
	quote   *domain.Quote
	err     error
	lastReq *domain.QuoteRequest
}

func (m *mockQuoteService) CreateQuote(_ context.Context, req *domain.QuoteRequest) (*domain.Quote, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.quote, nil
}

func setupQuoteTest(mock *mockQuoteService) func() {
	oldQuote := quoteService
	quoteService = mock
	return func() {
		quoteService = oldQuote
	}
}

const testQuoteRequest = `{
	"client": {"name": "Ahmed", "contact": "a@example.com", "lang": "ar"},
	"currency": "SAR",
	"items": [{"sku": "ALR-SL-90W", "qty": 10, "unit_cost": 100.0, "margin_pct": 20}]
}`

func TestQuoteCmd_Use(t *testing.T) {
	assert.Equal(t, "quote [request.json]", quoteCmd.Use)
}

func TestQuoteCmd_FromFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "marjaa-quote-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "request.json")
	require.NoError(t, os.WriteFile(path, []byte(testQuoteRequest), 0o600))

	mock := &mockQuoteService{quote: &domain.Quote{ID: "QR1A2B3C4D", GrandTotal: 1380}}
	cleanup := setupQuoteTest(mock)
	defer cleanup()

	out, err := execute(t, "quote", path)

	assert.NoError(t, err)
	require.NotNil(t, mock.lastReq)
	assert.Equal(t, "Ahmed", mock.lastReq.Client.Name)
	assert.Contains(t, out, `"quote_id": "QR1A2B3C4D"`)
}

func TestQuoteCmd_FromStdin(t *testing.T) {
	mock := &mockQuoteService{quote: &domain.Quote{ID: "QRDEADBEEF"}}
	cleanup := setupQuoteTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(testQuoteRequest))
	rootCmd.SetArgs([]string{"quote", "-"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "QRDEADBEEF")
}

func TestQuoteCmd_InvalidJSON(t *testing.T) {
	dir, err := os.MkdirTemp("", "marjaa-quote-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	cleanup := setupQuoteTest(&mockQuoteService{})
	defer cleanup()

	_, err = execute(t, "quote", path)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request JSON")
}

func TestQuoteCmd_ValidationError(t *testing.T) {
	dir, err := os.MkdirTemp("", "marjaa-quote-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "request.json")
	require.NoError(t, os.WriteFile(path, []byte(testQuoteRequest), 0o600))

	cleanup := setupQuoteTest(&mockQuoteService{err: domain.ErrInvalidInput})
	defer cleanup()

	_, err = execute(t, "quote", path)

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuoteCmd_MissingFile(t *testing.T) {
	cleanup := setupQuoteTest(&mockQuoteService{})
	defer cleanup()

	_, err := execute(t, "quote", "/no/such/file.json")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read request file")
}

func TestQuoteCmd_ServiceNotConfigured(t *testing.T) {
	oldQuote := quoteService
	quoteService = nil
	defer func() { quoteService = oldQuote }()

	_, err := execute(t, "quote", "/tmp/request.json")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "quote service not configured")
}
