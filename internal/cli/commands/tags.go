package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

// NewTagsCommand lists the tag registry.
func NewTagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "List all tags",
		Action: withEnv(func(c *cli.Context, e *env) error {
			tags, err := e.svc.Tags().List(c.Context)
			if err != nil {
				return err
			}
			w := c.App.Writer
			if len(tags) == 0 {
				muted(w, "No tags yet. Use '%s tag' to add some.", c.App.Name)
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			fmt.Fprintln(tw, "--\t----")
			for _, t := range tags {
				fmt.Fprintf(tw, "%s\t%s\n", t.ID, t.Name)
			}
			return tw.Flush()
		}),
	}
}

// NewRenameCommand renames a tag.
func NewRenameCommand() *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a tag everywhere it is used",
		ArgsUsage: "<old-name> <new-name>",
		Action: withEnv(func(c *cli.Context, e *env) error {
			if err := requireArgs(c, 2, "<old-name> <new-name>"); err != nil {
				return err
			}
			tag, err := e.svc.Tags().Find(c.Context, c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("tag %q: %w", c.Args().Get(0), err)
			}
			old := tag.Name
			if err := e.svc.Tags().Rename(c.Context, tag, c.Args().Get(1)); err != nil {
				return err
			}
			success(c.App.Writer, "Renamed '%s' to '%s'", old, tag.Name)
			return nil
		}),
	}
}
