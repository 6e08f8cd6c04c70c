package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --api-target
// on "corelens chat", "corelens query", and "corelens datasets").
type Flag struct {
	// Name is the long flag name (e.g. "api-target").
	Name string

	// Shorthand is the one-letter short flag (e.g. "t"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "client.api_target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddIntFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIListen     = "api-listen"
	FlagAPITarget     = "api-target"
	FlagStorageDriver = "storage-driver"
	FlagSQLite        = "sqlite"
	FlagPostgresDSN   = "postgres-dsn"
	FlagLibsqlURL     = "libsql-url"
	FlagLLMProvider   = "llm-provider"
	FlagLLMTarget     = "llm-target"
	FlagModel         = "model"
	FlagVectorProv    = "vector-store-provider"
	FlagVectorHost    = "vector-store-host"
	FlagVectorPort    = "vector-store-port"
	FlagEmbeddingProv = "embedding-provider"
	FlagEmbeddingTgt  = "embedding-target"
	FlagEmbeddingMdl  = "embedding-model"
	FlagEventsProv    = "events-provider"
	FlagEventsBrokers = "events-brokers"
	FlagEventsTopic   = "events-topic"
	FlagMaxRows       = "max-rows"
)

// Flags is the canonical registry used by the corelens commands. Commands
// pass this set (or a test-local one) to AddStringFlag, AddIntFlag, and
// BindRegisteredFlags.
var Flags = FlagSet{
	FlagAPIListen:     {Name: "api-listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagAPITarget:     {Name: "api-target", Shorthand: "t", ViperKey: "client.api_target", Description: "corelens API server URL"},
	FlagStorageDriver: {Name: "storage-driver", ViperKey: "storage.driver", Description: "Storage driver (sqlite, postgres, libsql)"},
	FlagSQLite:        {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the SQLite database file"},
	FlagPostgresDSN:   {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "Postgres connection string"},
	FlagLibsqlURL:     {Name: "libsql-url", ViperKey: "storage.libsql_url", Description: "libsql database URL"},
	FlagLLMProvider:   {Name: "llm-provider", ViperKey: "llm.provider", Description: "LLM provider type"},
	FlagLLMTarget:     {Name: "llm-target", ViperKey: "llm.target", Description: "LLM provider base URL"},
	FlagModel:         {Name: "model", Shorthand: "m", ViperKey: "llm.model", Description: "Model name used for assistants and insights"},
	FlagVectorProv:    {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store provider (inmemory, qdrant)"},
	FlagVectorHost:    {Name: "vector-store-host", ViperKey: "vector_store.host", Description: "Vector store host"},
	FlagVectorPort:    {Name: "vector-store-port", ViperKey: "vector_store.port", Description: "Vector store gRPC port"},
	FlagEmbeddingProv: {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider type"},
	FlagEmbeddingTgt:  {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider base URL"},
	FlagEmbeddingMdl:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEventsProv:    {Name: "events-provider", ViperKey: "events.provider", Description: "Event stream provider (nop, kafka)"},
	FlagEventsBrokers: {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma-separated Kafka broker addresses"},
	FlagEventsTopic:   {Name: "events-topic", ViperKey: "events.topic", Description: "Kafka topic for platform events"},
	FlagMaxRows:       {Name: "max-rows", ViperKey: "explorer.max_rows", Description: "Maximum rows returned by explorer queries"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *int) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultInt returns the default int value for a viper key from NewDefaultConfig.
func defaultInt(viperKey string) int {
	v := viper.New()
	setViperDefaults(v)
	return v.GetInt(viperKey)
}
