package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kutbudev/taggable/internal/api"
	"github.com/kutbudev/taggable/internal/catalog"
	"github.com/kutbudev/taggable/pkg/taggable"
	"github.com/urfave/cli/v2"
)

// NewCreateCommand creates a post or a book.
func NewCreateCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a post or a book",
		ArgsUsage: "<type> <title>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tags",
				Aliases: []string{"t"},
				Usage:   "Comma separated tag list",
			},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			if err := requireArgs(c, 2, "<type> <title>"); err != nil {
				return err
			}
			item, err := e.svc.Create(c.Context, c.Args().Get(0), c.Args().Get(1), c.String("tags"))
			if err != nil {
				return err
			}
			success(c.App.Writer, "Created %s %s", c.Args().Get(0), item.TaggableID())
			return show(c, item)
		}),
	}
}

// NewShowCommand prints an item and its tags.
func NewShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show an item with its tags",
		ArgsUsage: "<type> <id>",
		Action: withItem(0, func(c *cli.Context, e *env, item catalog.Item) error {
			return show(c, item)
		}),
	}
}

// NewTagCommand tags an item and saves.
func NewTagCommand() *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Add tags to an item",
		ArgsUsage: "<type> <id> <tag>...",
		Action: withItem(1, func(c *cli.Context, e *env, item catalog.Item) error {
			if _, err := item.Taggings().TagAndSave(c.Context, taggable.Names(c.Args().Slice()[2:]...)...); err != nil {
				return err
			}
			return show(c, item)
		}),
	}
}

// NewUntagCommand untags an item and saves. Without tag names every tag goes.
func NewUntagCommand() *cli.Command {
	return &cli.Command{
		Name:      "untag",
		Usage:     "Remove tags from an item, all of them when none are named",
		ArgsUsage: "<type> <id> [tag]...",
		Action: withItem(0, func(c *cli.Context, e *env, item catalog.Item) error {
			if _, err := item.Taggings().UntagAndSave(c.Context, taggable.Names(c.Args().Slice()[2:]...)...); err != nil {
				return err
			}
			return show(c, item)
		}),
	}
}

// NewSetCommand replaces the tag list of an item.
func NewSetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Replace the tag list of an item",
		ArgsUsage: "<type> <id> <tag-list>",
		Action: withItem(1, func(c *cli.Context, e *env, item catalog.Item) error {
			if err := item.Taggings().SetTagsListAndSave(c.Context, c.Args().Get(2)); err != nil {
				return err
			}
			return show(c, item)
		}),
	}
}

// NewTaggedCommand lists the items carrying a tag.
func NewTaggedCommand() *cli.Command {
	return &cli.Command{
		Name:      "tagged",
		Usage:     "List the items of a type carrying any of the tags",
		ArgsUsage: "<type> <tag>...",
		Action: withEnv(func(c *cli.Context, e *env) error {
			if err := requireArgs(c, 2, "<type> <tag>..."); err != nil {
				return err
			}
			items, err := e.svc.Tagged(c.Context, c.Args().First(), c.Args().Tail()...)
			if err != nil {
				return err
			}
			views, err := api.Views(c.Context, items)
			if err != nil {
				return err
			}
			printItems(c.App.Writer, views)
			return nil
		}),
	}
}

// NewUserCommand creates a user who can attribute tags.
func NewUserCommand() *cli.Command {
	return &cli.Command{
		Name:      "user",
		Usage:     "Create a user",
		ArgsUsage: "<login>",
		Action: withEnv(func(c *cli.Context, e *env) error {
			if err := requireArgs(c, 1, "<login>"); err != nil {
				return err
			}
			u, err := e.svc.CreateUser(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			success(c.App.Writer, "Created user %s (%s)", u.Login, u.ID)
			return nil
		}),
	}
}

// NewAttributeCommand tags an item on behalf of a user.
func NewAttributeCommand() *cli.Command {
	return &cli.Command{
		Name:      "attribute",
		Usage:     "Tag an item on behalf of a user",
		ArgsUsage: "<type> <id> <tag>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "User login or ID",
				Required: true,
			},
		},
		Action: withItem(1, func(c *cli.Context, e *env, item catalog.Item) error {
			u, err := e.svc.FindUser(c.Context, c.String("user"))
			if err != nil {
				return err
			}
			if _, err := e.svc.Attribute(c.Context, u, item, c.Args().Slice()[2:]...); err != nil {
				return err
			}
			return show(c, item)
		}),
	}
}

// withItem resolves the leading <type> <id> arguments; extra is the number of
// further arguments the command needs at least.
func withItem(extra int, fn func(c *cli.Context, e *env, item catalog.Item) error) cli.ActionFunc {
	return withEnv(func(c *cli.Context, e *env) error {
		if err := requireArgs(c, 2+extra, c.Command.ArgsUsage); err != nil {
			return err
		}
		id, err := uuid.Parse(c.Args().Get(1))
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", c.Args().Get(1), err)
		}
		item, err := e.svc.Find(c.Context, c.Args().Get(0), id)
		if err != nil {
			return err
		}
		return fn(c, e, item)
	})
}

func show(c *cli.Context, item catalog.Item) error {
	view, err := api.View(c.Context, item)
	if err != nil {
		return err
	}
	printItem(c.App.Writer, &view)
	return nil
}
