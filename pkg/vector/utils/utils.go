package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/vector"
	"github.com/corelens-ai/corelens/pkg/vector/inmemory"
	"github.com/corelens-ai/corelens/pkg/vector/qdrant"
)

type NewDriverOpts struct {
	ProviderType string
	Host         string
	Port         int
	Collection   string
	Logger       *zap.Logger
}

func NewDriver(o *NewDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "qdrant":
		return qdrant.NewDriver(qdrant.Config{
			Host:       o.Host,
			Port:       o.Port,
			Collection: o.Collection,
		}, o.Logger)
	case "inmemory":
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
