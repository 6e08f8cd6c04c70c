// Package servecmder provides the serve command for running the corelens
// API server with its full service stack.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/api"
	"github.com/corelens-ai/corelens/api/mcp"
	"github.com/corelens-ai/corelens/pkg/assistant"
	"github.com/corelens-ai/corelens/pkg/config"
	"github.com/corelens-ai/corelens/pkg/dataset"
	"github.com/corelens-ai/corelens/pkg/dictionary"
	"github.com/corelens-ai/corelens/pkg/dictionary/worker"
	embeddingutils "github.com/corelens-ai/corelens/pkg/embeddings/utils"
	"github.com/corelens-ai/corelens/pkg/eventstream"
	kafkastream "github.com/corelens-ai/corelens/pkg/eventstream/kafka"
	nopstream "github.com/corelens-ai/corelens/pkg/eventstream/nop"
	"github.com/corelens-ai/corelens/pkg/explorer"
	"github.com/corelens-ai/corelens/pkg/insights"
	"github.com/corelens-ai/corelens/pkg/llm/provider"
	"github.com/corelens-ai/corelens/pkg/logger"
	"github.com/corelens-ai/corelens/pkg/quality"
	"github.com/corelens-ai/corelens/pkg/registry"
	"github.com/corelens-ai/corelens/pkg/storage/libsql"
	"github.com/corelens-ai/corelens/pkg/storage/postgres"
	"github.com/corelens-ai/corelens/pkg/storage/sqlite"
	"github.com/corelens-ai/corelens/pkg/storage/sqlstore"
	vectorutils "github.com/corelens-ai/corelens/pkg/vector/utils"
)

type ServeCommander struct {
	listen           string
	storageDriver    string
	sqlitePath       string
	postgresDSN      string
	libsqlURL        string
	llmProvider      string
	llmTarget        string
	model            string
	vectorProv       string
	vectorHost       string
	vectorPort       int
	vectorCollection string
	embeddingProv    string
	embeddingTgt     string
	embeddingMdl     string
	eventsProv       string
	eventsBrokers    string
	eventsTopic      string
	maxRows          int
	debug            bool

	logger *zap.Logger
}

const serveLongDesc string = `Run the corelens API server.

Serves the dataset, quality, dictionary, explorer, insight, registry,
and chat endpoints on a single listen address, plus the MCP endpoint
at /mcp for external agent clients.

All flags fall back to values from config.toml and CORELENS_* environment
variables (flag > env > config file > default).

Examples:
  corelens serve
  corelens serve --sqlite corelens.db --api-listen :9000
  corelens serve --storage-driver postgres --postgres-dsn postgres://localhost/corelens`

const serveShortDesc string = "Run the corelens API server"

// serveFlags lists the registry keys bound on this command.
var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagLibsqlURL,
	config.FlagLLMProvider,
	config.FlagLLMTarget,
	config.FlagModel,
	config.FlagVectorProv,
	config.FlagVectorHost,
	config.FlagVectorPort,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingMdl,
	config.FlagEventsProv,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
	config.FlagMaxRows,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)
			cmder.resolve(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagLibsqlURL, &cmder.libsqlURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMProvider, &cmder.llmProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMTarget, &cmder.llmTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorHost, &cmder.vectorHost)
	config.AddIntFlag(cmd, config.Flags, config.FlagVectorPort, &cmder.vectorPort)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingMdl, &cmder.embeddingMdl)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProv, &cmder.eventsProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.eventsTopic)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxRows, &cmder.maxRows)

	return cmd
}

// resolve pulls final values from the viper precedence chain into the commander.
func (c *ServeCommander) resolve(v *viper.Viper) {
	c.listen = v.GetString("api.listen")
	c.storageDriver = v.GetString("storage.driver")
	c.sqlitePath = v.GetString("storage.sqlite_path")
	c.postgresDSN = v.GetString("storage.postgres_dsn")
	c.libsqlURL = v.GetString("storage.libsql_url")
	c.llmProvider = v.GetString("llm.provider")
	c.llmTarget = v.GetString("llm.target")
	c.model = v.GetString("llm.model")
	c.vectorProv = v.GetString("vector_store.provider")
	c.vectorHost = v.GetString("vector_store.host")
	c.vectorPort = v.GetInt("vector_store.port")
	c.embeddingProv = v.GetString("embedding.provider")
	c.embeddingTgt = v.GetString("embedding.target")
	c.embeddingMdl = v.GetString("embedding.model")
	c.eventsProv = v.GetString("events.provider")
	c.eventsBrokers = v.GetString("events.brokers")
	c.eventsTopic = v.GetString("events.topic")
	c.maxRows = v.GetInt("explorer.max_rows")
	c.vectorCollection = v.GetString("vector_store.collection")
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	// Storage
	store, err := c.newStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// Event stream
	events, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer events.Close()

	// LLM provider
	llmProvider, err := provider.New(c.llmProvider, c.llmTarget)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}

	// Dictionary search: substring by default, semantic when an embedder
	// and vector store are configured.
	dictOpts := []dictionary.Option{dictionary.WithLogger(c.logger)}
	if c.embeddingProv != "" && c.embeddingProv != "nop" {
		embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: c.embeddingProv,
			TargetURL:    c.embeddingTgt,
			Model:        c.embeddingMdl,
		})
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		vectors, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
			ProviderType: c.vectorProv,
			Host:         c.vectorHost,
			Port:         c.vectorPort,
			Collection:   c.vectorCollection,
			Logger:       c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating vector store: %w", err)
		}

		indexPool, err := worker.NewPool(&worker.Config{
			Embedder: embedder,
			Vectors:  vectors,
			Logger:   c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating index pool: %w", err)
		}
		defer indexPool.Close()

		dictOpts = append(dictOpts,
			dictionary.WithSemanticSearch(embedder, vectors),
			dictionary.WithAsyncIndexer(indexPool),
		)
		c.logger.Info("semantic dictionary search enabled",
			zap.String("embedding_provider", c.embeddingProv),
			zap.String("vector_store", c.vectorProv),
		)
	}

	// Services
	db := store.DB()
	datasets := dataset.NewService(db, store.Dialect(), store, events, c.logger)
	qualitySvc := quality.NewService(db, store, c.logger)
	dictSvc := dictionary.NewService(store, dictOpts...)
	explorerSvc := explorer.NewService(db,
		explorer.WithMaxRows(c.maxRows),
		explorer.WithLogger(c.logger),
	)
	insightsSvc := insights.NewService(store, llmProvider, c.model, events, c.logger)
	registrySvc := registry.NewService(store, events, c.logger)

	toolbox := assistant.NewToolbox(store, explorerSvc, dictSvc)
	assistantSvc := assistant.NewService(llmProvider, c.model, store, toolbox, c.logger)

	// MCP endpoint
	mcpServer, err := mcp.NewServer(mcp.Config{
		Store:      store,
		Explorer:   explorerSvc,
		Dictionary: dictSvc,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiConfig := api.Config{
		ListenAddr: c.listen,
	}

	server := api.NewServer(apiConfig, api.Services{
		Store:      store,
		Datasets:   datasets,
		Quality:    qualitySvc,
		Dictionary: dictSvc,
		Explorer:   explorerSvc,
		Insights:   insightsSvc,
		Registry:   registrySvc,
		Assistant:  assistantSvc,
		MCP:        mcpServer.Handler(),
	}, c.logger)

	c.logger.Info("starting API server",
		zap.String("listen", c.listen),
		zap.String("storage", c.storageDriver),
		zap.String("llm_provider", c.llmProvider),
		zap.String("model", c.model),
		zap.String("events", c.eventsProv),
	)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

func (c *ServeCommander) newStore() (*sqlstore.Store, error) {
	switch c.storageDriver {
	case "sqlite", "":
		path := c.sqlitePath
		if path == "" {
			path = "corelens.db"
		}
		store, err := sqlite.New(path)
		if err != nil {
			return nil, fmt.Errorf("opening SQLite storage: %w", err)
		}
		c.logger.Info("using SQLite storage", zap.String("path", path))
		return store, nil

	case "postgres":
		store, err := postgres.New(c.postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening Postgres storage: %w", err)
		}
		c.logger.Info("using Postgres storage")
		return store, nil

	case "libsql":
		store, err := libsql.New(c.libsqlURL)
		if err != nil {
			return nil, fmt.Errorf("opening libsql storage: %w", err)
		}
		c.logger.Info("using libsql storage", zap.String("url", c.libsqlURL))
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", c.storageDriver)
	}
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.eventsProv {
	case "nop", "":
		return nopstream.NewPublisher(), nil

	case "kafka":
		brokers := strings.Split(c.eventsBrokers, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		c.logger.Info("publishing events to Kafka",
			zap.Strings("brokers", brokers),
			zap.String("topic", c.eventsTopic),
		)
		return kafkastream.NewPublisher(brokers, c.eventsTopic), nil

	default:
		return nil, fmt.Errorf("unsupported events provider: %q", c.eventsProv)
	}
}
