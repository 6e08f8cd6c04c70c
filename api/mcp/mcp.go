// Package mcp provides an MCP (Model Context Protocol) server for the
// corelens platform, exposing the same tools the chat assistants use.
package mcp

import (
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/dictionary"
	"github.com/corelens-ai/corelens/pkg/explorer"
	"github.com/corelens-ai/corelens/pkg/storage"
	"github.com/corelens-ai/corelens/pkg/utils"
)

type Config struct {
	// Store lists datasets for the list_tables tool
	Store storage.Store

	// Explorer runs read-only SQL for the run_query tool
	Explorer *explorer.Service

	// Dictionary backs the search_dictionary tool
	Dictionary *dictionary.Service

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the platform tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "corelens",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Store == nil {
		return nil, errors.New("store is required")
	}
	if c.Explorer == nil {
		return nil, errors.New("explorer service is required")
	}
	if c.Dictionary == nil {
		return nil, errors.New("dictionary service is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listTablesToolName,
		Description: listTablesDescription,
	}, s.handleListTables)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        runQueryToolName,
		Description: runQueryDescription,
	}, s.handleRunQuery)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchDictionaryToolName,
		Description: searchDictionaryDescription,
	}, s.handleSearchDictionary)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
