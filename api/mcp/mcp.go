// Package mcp provides an MCP (Model Context Protocol) server exposing
// conversation insights, learned user facts and memory status as tools.
package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/companion/pkg/companion"
	"github.com/papercomputeco/companion/pkg/storage"
	"github.com/papercomputeco/companion/pkg/utils"
)

type Config struct {
	// Service holds the live conversation sessions
	Service *companion.Service

	// Storer backs rehydration and fact lookup
	Storer storage.Driver

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the companion tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "companion",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)
	s.mcpServer = mcpServer

	if !c.Noop {
		if c.Service == nil {
			return nil, errors.New("companion service is required")
		}
		if c.Storer == nil {
			return nil, errors.New("storage driver is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        insightsToolName,
			Description: insightsDescription,
		}, s.handleConversationInsights)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        userFactsToolName,
			Description: userFactsDescription,
		}, s.handleUserFacts)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        memoryStatusToolName,
			Description: memoryStatusDescription,
		}, s.handleMemoryStatus)
	}

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

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// textResult mirrors the structured output as JSON text for clients that
// only read content blocks.
func textResult(output any) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}
