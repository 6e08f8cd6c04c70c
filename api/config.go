// Package api provides the HTTP API server for the corelens platform:
// dataset ingestion, quality reports, the data dictionary, the SQL explorer,
// AI insights, the model/recipe/run registry, and the streaming chat endpoint.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// BodyLimit caps request body size in bytes. Zero means the default
	// (64 MiB), sized for CSV uploads.
	BodyLimit int
}

const defaultBodyLimit = 64 * 1024 * 1024
