package main

import (
	"github.com/charmbracelet/lipgloss"
	lipTable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/handiism/spotidown/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var clearAll bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently downloaded tracks and collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			if clearAll {
				if err := a.store.Clear(); err != nil {
					return err
				}
				a.out.println("History cleared.")
				return nil
			}

			entries := a.store.List()
			if len(entries) == 0 {
				a.out.println(dimStyle.Render("Nothing downloaded yet."))
				return nil
			}
			a.out.println(renderHistory(entries))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Forget every entry")
	return cmd
}

func renderHistory(entries []history.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			runewidth.Truncate(e.Name, 40, "…"),
			runewidth.Truncate(e.Artist, 30, "…"),
			humanize.Time(e.Timestamp),
			e.URL,
		})
	}

	return lipTable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Name", "Artist", "When", "Link").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lipTable.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Rows(rows...).
		Render()
}
