// Package mcp implements the Model Context Protocol server.
package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rsned/cultivation-server/internal/cultivation/engine"
	cultsync "github.com/rsned/cultivation-server/internal/cultivation/sync"
	"github.com/rsned/cultivation-server/internal/logging"
)

// Server wraps the MCP SDK server and exposes the calculator as tools.
type Server struct {
	MCPServer *sdkmcp.Server

	engine *engine.Engine
	syncer *cultsync.Syncer
	logger *slog.Logger
}

// NewServer creates an MCP server with every calculator tool registered.
func NewServer(eng *engine.Engine, syncer *cultsync.Syncer, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		engine: eng,
		syncer: syncer,
		logger: logging.New("mcp"),
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "cultivation-server", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server starting")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "calculate",
		Description: "Run the progression ladder for a preset or saved scheme, with optional explicit params, resource config and per-field overrides. Returns per-stage costs and durations, resource summary and consistency alerts, or validation errors.",
	}, s.handleCalculate)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "validate_params",
		Description: "Validate the parameters a request resolves to without running the ladder.",
	}, s.handleValidate)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "coefficients",
		Description: "Compute the conversion rate, absorption rate and resource outputs a request resolves to.",
	}, s.handleCoefficients)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_presets",
		Description: "List built-in and imported presets.",
	}, s.handleListPresets)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "save_scheme",
		Description: "Save the configuration a request resolves to as a named scheme. Overrides are stored alongside the base values.",
	}, s.handleSaveScheme)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_schemes",
		Description: "List saved schemes, newest first.",
	}, s.handleListSchemes)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_scheme",
		Description: "Get a saved scheme by id.",
	}, s.handleGetScheme)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "rename_scheme",
		Description: "Change the name of a saved scheme.",
	}, s.handleRenameScheme)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "delete_scheme",
		Description: "Delete a saved scheme.",
	}, s.handleDeleteScheme)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "compare_schemes",
		Description: "Evaluate several saved schemes and return one comparison row per scheme, in request order.",
	}, s.handleCompareSchemes)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "export_scheme",
		Description: "Export a saved scheme in its portable JSON form. Overrides are folded into the params; results are not exported.",
	}, s.handleExportScheme)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "import_schemes",
		Description: "Import schemes from exported JSON. Accepts a single scheme object or an array of them.",
	}, s.handleImportSchemes)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "set_current",
		Description: "Select the current preset and its overrides. Requests without a preset or scheme use this selection.",
	}, s.handleSetCurrent)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_current",
		Description: "Get the current selection and the configuration it resolves to.",
	}, s.handleGetCurrent)
}
