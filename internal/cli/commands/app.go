package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kutbudev/taggable/internal/catalog"
	"github.com/kutbudev/taggable/internal/tracing"
	"github.com/kutbudev/taggable/pkg/config"
	"github.com/kutbudev/taggable/pkg/repository"
	"github.com/kutbudev/taggable/pkg/taggable"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

// NewApp builds the taggable command line.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:    "taggable",
		Usage:   "Tag posts and books from the command line",
		Version: version,
		Flags:   GlobalFlags(),
		Commands: []*cli.Command{
			// Setup
			NewMigrateCommand(),
			NewServeCommand(),

			// Tag registry
			NewTagsCommand(),
			NewRenameCommand(),

			// Items
			NewCreateCommand(),
			NewShowCommand(),
			NewTagCommand(),
			NewUntagCommand(),
			NewSetCommand(),
			NewTaggedCommand(),

			// Users
			NewUserCommand(),
			NewAttributeCommand(),

			// Other surfaces
			NewRemoteCommand(),
			NewMcpCommand(),
		},
	}
}

// GlobalFlags are shared by every command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default: ./config.yaml or ./config/config.yaml)",
		},
		&cli.StringSliceFlag{
			Name:  "env-file",
			Usage: "Dotenv files to load before the environment is read",
		},
	}
}

// env is what a command needs to touch the catalog.
type env struct {
	cfg *config.Config
	log *slog.Logger
	db  *gorm.DB
	svc *catalog.Service
	tp  *tracing.Provider
}

func (e *env) Close() error {
	return errors.Join(
		repository.Close(e.db),
		e.tp.Shutdown(context.Background()),
	)
}

func openEnv(c *cli.Context) (*env, error) {
	cfg, err := config.Load(config.Options{
		ConfigFile: c.String("config"),
		EnvFiles:   c.StringSlice("env-file"),
	})
	if err != nil {
		return nil, err
	}
	log, err := cfg.Log.Logger(c.App.ErrWriter)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	tp, err := tracing.NewProvider(cfg.Tracing, c.App.ErrWriter)
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDatabase(cfg, catalog.Models()...)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, err
	}
	tags := taggable.NewTags(db, taggable.WithCache(cfg.Tags.CacheTTL), taggable.WithLogger(log))
	svc, err := catalog.NewService(db, tags, log)
	if err != nil {
		_ = repository.Close(db)
		_ = tp.Shutdown(context.Background())
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db, svc: svc, tp: tp}, nil
}

// withEnv runs fn against a freshly opened catalog and closes it afterwards.
func withEnv(fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := openEnv(c)
		if err != nil {
			return err
		}
		defer e.Close()
		return fn(c, e)
	}
}

func requireArgs(c *cli.Context, n int, usage string) error {
	if c.NArg() < n {
		return fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, usage)
	}
	return nil
}
