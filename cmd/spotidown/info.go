package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	lipTable "github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/handiism/spotidown/internal/model"
	"github.com/handiism/spotidown/internal/session"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <url>",
		Short: "Show the tracks behind a Spotify link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			d := &infoDriver{locator: args[0]}
			if err := a.drive(cmd.Context(), d); err != nil {
				return err
			}
			a.out.println(renderResult(d.result))
			return nil
		},
	}
}

// infoDriver fetches metadata and stops.
type infoDriver struct {
	locator string
	result  *model.Result
	finish  func(error)
}

func (d *infoDriver) start(s *session.Session, finish func(error)) {
	d.finish = finish
	if err := s.Fetch(d.locator); err != nil {
		finish(err)
	}
}

func (d *infoDriver) event(*session.Session, session.Event) {}

func (d *infoDriver) change(_ *session.Session, snap session.Snapshot) {
	switch snap.Status {
	case session.StatusSuccess:
		d.result = snap.Result
		d.finish(nil)
	case session.StatusError:
		d.finish(fmt.Errorf("%w: %s", errFetch, snap.Message))
	}
}

// renderResult draws a result header and its track table.
func renderResult(r *model.Result) string {
	header := fmt.Sprintf("%s: %s", r.Type(), r.Name())
	if r.Artist() != "" {
		header += " by " + r.Artist()
	}

	rows := make([][]string, 0, r.Len())
	for i, t := range r.Items() {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			runewidth.Truncate(t.Name, 40, "…"),
			runewidth.Truncate(t.Artist, 30, "…"),
			t.ID,
		})
	}

	table := lipTable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("#", "Track", "Artist", "ID").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lipTable.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Rows(rows...)

	return headerStyle.Render(header) + "\n" + table.Render()
}
