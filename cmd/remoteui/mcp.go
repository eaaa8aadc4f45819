package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/remoteui"
	mcpAdapter "github.com/aretw0/remoteui/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes render_ui, dispatch_action and reload as MCP tools without the
HTTP server.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.
  Requires --mcp-token (or REMOTEUI_MCP_TOKEN); clients send it as
  "Authorization: Bearer <token>".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("listen")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := []remoteui.Option{remoteui.WithLogger(logger)}
		if cfg.Scripts != "" {
			opts = append(opts, remoteui.WithScripts(cfg.Scripts, cfg.ScriptTimeout))
		}
		app, err := remoteui.New(ctx, opts...)
		if err != nil {
			return err
		}
		srv := mcpAdapter.NewServer(app.Server(), app.Controller(), remoteui.Version,
			mcpAdapter.WithLogger(logger),
			mcpAdapter.WithToken(cfg.MCPToken),
		)

		switch transport {
		case "stdio":
			// Keep stdout clean for JSON-RPC.
			log.SetOutput(os.Stderr)
			logger.Info("Starting remoteui MCP server (stdio)")
			return srv.Listen(ctx, os.Stdin, os.Stdout)
		case "sse":
			logger.Info("Starting remoteui MCP server (SSE)", "addr", addr)
			return srv.ServeSSE(ctx, addr)
		default:
			return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("listen", "127.0.0.1:8090", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("mcp-token", "", "Bearer token required by the SSE transport")
	addScriptFlags(mcpCmd)
}
