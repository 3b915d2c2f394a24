package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/kutbudev/taggable/internal/api"
	"github.com/urfave/cli/v2"
)

// NewRemoteCommand talks to a running server instead of the database.
func NewRemoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "remote",
		Usage: "Work against a running taggable server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Server base URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"TAGGABLE_SERVER_URL"},
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:  "tags",
				Usage: "List all tags",
				Action: func(c *cli.Context) error {
					tags, err := remoteClient(c).ListTags()
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME")
					fmt.Fprintln(tw, "--\t----")
					for _, t := range tags {
						fmt.Fprintf(tw, "%s\t%s\n", t.ID, t.Name)
					}
					return tw.Flush()
				},
			},
			{
				Name:      "show",
				Usage:     "Show an item with its tags",
				ArgsUsage: "<type> <id>",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 2, "<type> <id>"); err != nil {
						return err
					}
					item, err := remoteClient(c).GetItem(c.Args().Get(0), c.Args().Get(1))
					if err != nil {
						return err
					}
					printItem(c.App.Writer, item)
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "Replace the tag list of an item",
				ArgsUsage: "<type> <id> <tag-list>",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 3, "<type> <id> <tag-list>"); err != nil {
						return err
					}
					item, err := remoteClient(c).SetTagsList(c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
					if err != nil {
						return err
					}
					printItem(c.App.Writer, item)
					return nil
				},
			},
			{
				Name:      "tagged",
				Usage:     "List the items carrying a tag",
				ArgsUsage: "<type> <tag>",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 2, "<type> <tag>"); err != nil {
						return err
					}
					items, err := remoteClient(c).Tagged(c.Args().Get(0), c.Args().Get(1))
					if err != nil {
						return err
					}
					printItems(c.App.Writer, items)
					return nil
				},
			},
		},
	}
}

func remoteClient(c *cli.Context) *api.Client {
	return api.NewClient(c.String("server"))
}
