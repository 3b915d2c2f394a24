package commands

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/kutbudev/taggable/internal/api"
	"github.com/kutbudev/taggable/internal/mcp"
	"github.com/urfave/cli/v2"
)

// NewMigrateCommand creates or updates the tables.
func NewMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database tables",
		Action: withEnv(func(c *cli.Context, e *env) error {
			// openEnv already migrated.
			success(c.App.Writer, "Database ready (%s)", e.cfg.Database.Driver)
			return nil
		}),
	}
}

// NewServeCommand runs the HTTP API.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the catalog over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			addr := c.String("addr")
			if addr == "" {
				addr = e.cfg.Server.Addr()
			}
			gin.SetMode(gin.ReleaseMode)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return api.Serve(ctx, addr, api.NewRouter(api.NewHandler(e.svc), e.log), e.log)
		}),
	}
}

// NewMcpCommand serves the tagging tools over MCP stdio.
func NewMcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the tagging tools to an MCP client over stdio",
		Action: withEnv(func(c *cli.Context, e *env) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return mcp.ServeStdio(ctx, e.svc, c.App.Version)
		}),
	}
}
