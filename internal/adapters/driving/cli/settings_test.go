package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    *domain.AppSettings
	validateErr error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.settings != nil {
		return m.settings, nil
	}
	defaults := domain.DefaultAppSettings()
	return &defaults, nil
}

func (m *mockSettingsService) SetEmbeddingProvider(_ domain.AIProvider, _, _ string) error {
	return nil
}

func (m *mockSettingsService) SetLLMProvider(_ domain.AIProvider, _, _ string) error {
	return nil
}

func (m *mockSettingsService) Validate() error                { return m.validateErr }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error       { return nil }

func setupSettingsTest(mock *mockSettingsService) func() {
	oldSettings := settingsService
	settingsService = mock
	return func() {
		settingsService = oldSettings
	}
}

func TestSettingsCmd_Use(t *testing.T) {
	assert.Equal(t, "settings", settingsCmd.Use)
}

func TestSettingsShowCmd_PrintsSections(t *testing.T) {
	cleanup := setupSettingsTest(&mockSettingsService{})
	defer cleanup()

	out, err := execute(t, "settings", "show")

	assert.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "[LLM]")
	assert.Contains(t, out, "[Chunking]")
	assert.Contains(t, out, "[Retrieval]")
	assert.Contains(t, out, "[Vector Index]")
	assert.Contains(t, out, "nomic-embed-text")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShowCmd_WarnsOnInvalidConfig(t *testing.T) {
	cleanup := setupSettingsTest(&mockSettingsService{
		validateErr: domain.ErrInvalidInput,
	})
	defer cleanup()

	out, err := execute(t, "settings", "show")

	assert.NoError(t, err)
	assert.Contains(t, out, "Warning:")
	assert.Contains(t, out, "marjaa settings wizard")
}

func TestSettingsShowCmd_MasksAPIKey(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding.Provider = domain.AIProviderOpenAI
	settings.Embedding.APIKey = "sk-verysecretapikey123"
	cleanup := setupSettingsTest(&mockSettingsService{settings: &settings})
	defer cleanup()

	out, err := execute(t, "settings", "show")

	assert.NoError(t, err)
	assert.NotContains(t, out, "sk-verysecretapikey123")
	assert.Contains(t, out, "sk-v...y123")
}

func TestSettingsCmd_ServiceNotConfigured(t *testing.T) {
	oldSettings := settingsService
	settingsService = nil
	defer func() { settingsService = oldSettings }()

	_, err := execute(t, "settings", "show")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "****", maskAPIKey("12345678"))
	assert.Equal(t, "sk-a...wxyz", maskAPIKey("sk-abcdefgwxyz"))
}

func TestParseChoice(t *testing.T) {
	assert.Equal(t, 1, parseChoice("", 3, 1))
	assert.Equal(t, 2, parseChoice("2", 3, 1))
	assert.Equal(t, 1, parseChoice("9", 3, 1))
	assert.Equal(t, 1, parseChoice("abc", 3, 1))
}
