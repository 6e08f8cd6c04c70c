package config

const (
	defaultStorageDriver = "sqlite"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultLLMProvider = "ollama"
	defaultLLMTarget   = "http://localhost:11434"
	defaultLLMModel    = "llama3.2"

	defaultVectorProvider   = "inmemory"
	defaultVectorHost       = "localhost"
	defaultVectorPort       = 6334
	defaultVectorCollection = "corelens_dictionary"

	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultEventsProvider = "nop"
	defaultEventsBrokers  = "localhost:9092"
	defaultEventsTopic    = "corelens.events"

	defaultExplorerMaxRows = 500
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		LLM: LLMConfig{
			Provider: defaultLLMProvider,
			Target:   defaultLLMTarget,
			Model:    defaultLLMModel,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Host:       defaultVectorHost,
			Port:       defaultVectorPort,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultLLMProvider,
			Target:     defaultLLMTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Brokers:  defaultEventsBrokers,
			Topic:    defaultEventsTopic,
		},
		Explorer: ExplorerConfig{
			MaxRows: defaultExplorerMaxRows,
		},
	}
}
