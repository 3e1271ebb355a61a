// Cultivation consistency calculator server and CLI.
//
// Usage:
//
//	cultivation-server serve                      # MCP over stdio
//	cultivation-server http --addr :8080          # REST and WebSocket API
//	cultivation-server calc --preset genius       # print stage, summary and alert tables
//	cultivation-server presets
//	cultivation-server compare [scheme-id...]
//	cultivation-server import --presets presets.yaml --schemes schemes.json
//	cultivation-server export <scheme-id> --out scheme.json
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
