package main

import (
	"context"
	"fmt"
	"os"

	"wallsweep/internal/config"
	"wallsweep/internal/export"
	"wallsweep/internal/vk"
	"wallsweep/internal/wall"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	zlog.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.Auth.Token == "" {
		zlog.Fatal().Msg("VK_TOKEN is required for wallmcp")
	}

	client := vk.NewClient(cfg.API.BaseURL, cfg.API.Version, cfg.API.Timeout)

	session, err := client.Authorize(context.Background(), vk.TokenFromInput(cfg.Auth.Token))
	if err != nil {
		zlog.Fatal().Err(err).Msg("authorization failed")
	}

	sweeper := wall.NewService(client, zlog.Logger)
	sweeper.PageSize = cfg.Sweep.PageSize
	sweeper.PagePause = cfg.Sweep.PagePause
	sweeper.DeletePause = cfg.Sweep.DeletePause

	// Read-only surface: deletion stays behind the interactive gates.
	s := server.NewMCPServer(
		"wallsweep",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	countTool := mcp.Tool{
		Name:        "wall_count",
		Description: "Count the posts currently on the authorized user's wall",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}

	s.AddTool(countTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		posts := sweeper.EnumerateAll(ctx, session)
		return mcp.NewToolResultText(fmt.Sprintf("%d posts on the wall", len(posts))), nil
	})

	exportTool := mcp.Tool{
		Name:        "wall_export",
		Description: "Fetch every wall post with text and save them to a plain-text file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"filename": map[string]any{"type": "string", "description": "Target file path, defaults to vk_posts.txt"},
			},
		},
	}

	s.AddTool(exportTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filename := cfg.Export.Filename
		if args := request.GetArguments(); args != nil {
			if v, ok := args["filename"].(string); ok && v != "" {
				filename = v
			}
		}

		posts := sweeper.EnumerateAll(ctx, session)
		blocks := export.Format(posts)
		if err := export.Save(filename, blocks); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("saved %d posts to %s", len(blocks), filename)), nil
	})

	port := getEnv("PORT", "8081")
	httpServer := server.NewStreamableHTTPServer(
		s,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
	)
	zlog.Info().Str("port", port).Msg("wallsweep MCP server listening on /mcp")
	if err := httpServer.Start(":" + port); err != nil {
		zlog.Fatal().Err(err).Msg("server error")
	}
}

func getEnv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}
