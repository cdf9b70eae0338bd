package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"musicbridge/actions"
	"musicbridge/config"
	"musicbridge/itunes/model"
	"musicbridge/logging"
)

const configResourceURI = "musicbridge://config"

func main() {
	cfg, err := config.Load(os.Getenv("MUSICBRIDGE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol; InitLogger writes to stderr.
	logger, err := logging.InitLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	mcpServer := newServer(actions.FromConfig(cfg, logger), cfg, logger)

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

// toolHandlers adapts the action service to MCP tool calls
type toolHandlers struct {
	service *actions.Service
	cfg     config.Config
	logger  *zap.Logger
}

func newServer(svc *actions.Service, cfg config.Config, logger *zap.Logger) *server.MCPServer {
	h := &toolHandlers{service: svc, cfg: cfg, logger: logger.Named("mcp")}

	mcpServer := server.NewMCPServer(
		"musicbridge-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithLogging(),
	)

	openTool := mcp.NewTool("open_player",
		mcp.WithDescription(fmt.Sprintf("Launch %s or bring it to the front", cfg.Player.App)),
	)

	playTool := mcp.NewTool("play_track",
		mcp.WithDescription("Play the best library match for a track name. Tries the full name (case-insensitive) first, then individual words longer than 3 characters. When nothing matches, a few available track names are returned."),
		mcp.WithString("track",
			mcp.Required(),
			mcp.Description("Track name or part of it"),
		),
	)

	searchTool := mcp.NewTool("open_browser_search",
		mcp.WithDescription(fmt.Sprintf("Open a %s search in %s", cfg.Browser.SiteName, cfg.Browser.Name)),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms"),
		),
	)

	mcpServer.AddTool(openTool, h.openPlayerHandler)
	mcpServer.AddTool(playTool, h.playTrackHandler)
	mcpServer.AddTool(searchTool, h.searchHandler)

	configResource := mcp.NewResource(
		configResourceURI,
		"Effective Configuration",
		mcp.WithResourceDescription("Player, browser and server settings in use"),
		mcp.WithMIMEType("application/toml"),
	)
	mcpServer.AddResource(configResource, h.configHandler)

	return mcpServer
}

func (h *toolHandlers) openPlayerHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.toolResult("open_player", h.service.OpenPlayer(ctx)), nil
}

func (h *toolHandlers) playTrackHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	track, err := request.RequireString("track")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid track parameter: %v", err)), nil
	}
	return h.toolResult("play_track", h.service.PlayTrack(ctx, track)), nil
}

func (h *toolHandlers) searchHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid query parameter: %v", err)), nil
	}
	return h.toolResult("open_browser_search", h.service.OpenBrowserSearch(ctx, query)), nil
}

// toolResult maps an action result onto MCP. A track that was not found is a
// normal answer, not a tool error.
func (h *toolHandlers) toolResult(op string, res model.ActionResult) *mcp.CallToolResult {
	h.logger.Debug("tool finished",
		zap.String("op", op),
		zap.Bool("success", res.Success),
		zap.Int("status", res.Status))

	if res.Status >= http.StatusBadRequest {
		return mcp.NewToolResultError(res.Message)
	}
	return mcp.NewToolResultText(res.Message)
}

func (h *toolHandlers) configHandler(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var buf bytes.Buffer
	if err := h.cfg.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/toml",
			Text:     buf.String(),
		},
	}, nil
}
