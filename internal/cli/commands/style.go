package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/kutbudev/taggable/internal/api"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func muted(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

func renderTags(names []string) string {
	if len(names) == 0 {
		return mutedStyle.Render("(none)")
	}
	styled := make([]string, len(names))
	for i, n := range names {
		styled[i] = tagStyle.Render(n)
	}
	return strings.Join(styled, ", ")
}

func printItem(w io.Writer, item *api.ItemView) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s %s", item.Type, item.ID)))
	fmt.Fprintf(w, "Title: %s\n", item.Title)
	fmt.Fprintf(w, "Tags:  %s\n", renderTags(item.Tags))
}

func printItems(w io.Writer, items []api.ItemView) {
	if len(items) == 0 {
		muted(w, "No items found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTAGS")
	fmt.Fprintln(tw, "--\t-----\t----")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.ID.String()[:8], truncateString(item.Title, 40), item.TagsList)
	}
	tw.Flush()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
