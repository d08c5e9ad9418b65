package connectors

import (
	"context"
	"fmt"

	"github.com/alrouf-labs/marjaa-cli/internal/connectors/filesystem"
	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory creates connectors from stored source configurations.
type Factory struct{}

// NewFactory creates a connector factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create builds a connector for the given source.
// Returns domain.ErrUnsupportedType for unknown source types.
func (f *Factory) Create(_ context.Context, source domain.Source) (driven.Connector, error) {
	switch source.Type {
	case filesystem.ConnectorType:
		path := source.Config["path"]
		if path == "" {
			return nil, fmt.Errorf("%w: filesystem source %q requires a 'path' config entry",
				domain.ErrInvalidInput, source.ID)
		}
		return filesystem.New(source.ID, path), nil

	default:
		return nil, fmt.Errorf("%w: unknown source type %q", domain.ErrUnsupportedType, source.Type)
	}
}
