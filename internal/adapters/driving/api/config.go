package api

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the quotation API configuration, loaded from MARJAA_API_*
// environment variables.
type Config struct {
	// Addr is the listen address.
	Addr string `envconfig:"ADDR" default:":8080"`

	// ServiceName is reported by the health and info endpoints.
	ServiceName string `envconfig:"SERVICE_NAME" default:"quotation-engine"`

	// CompanyName appears in the email drafts.
	CompanyName string `envconfig:"COMPANY_NAME" default:"Alrouf Lighting Technology"`

	// ReadTimeoutSeconds bounds request reads.
	ReadTimeoutSeconds int `envconfig:"READ_TIMEOUT_SECONDS" default:"30"`

	// WriteTimeoutSeconds bounds response writes.
	WriteTimeoutSeconds int `envconfig:"WRITE_TIMEOUT_SECONDS" default:"30"`
}

// LoadConfig reads the API configuration from the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("MARJAA_API", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}
