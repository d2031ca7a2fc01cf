package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/handiism/spotidown/internal/audio"
	"github.com/handiism/spotidown/internal/config"
	"github.com/handiism/spotidown/internal/model"
	"github.com/handiism/spotidown/internal/session"
)

func newGetCmd() *cobra.Command {
	var (
		each     bool
		playlist bool
		output   string
	)
	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Download a track, album or playlist",
		Long: `Download the music behind a Spotify link. Albums and playlists are fetched as
a single zip archive built by the server, unless --each is given, in which case
every track is downloaded separately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(func(s *config.Settings) {
				if output != "" {
					s.DownloadsPath = output
				}
			})
			if err != nil {
				return err
			}

			a.out.println(headerStyle.Render("♫ Spotidown"))
			d := &getDriver{
				locator:  args[0],
				each:     each,
				playlist: playlist,
				app:      a,
				saved:    make(map[string]string),
			}
			if err := a.drive(cmd.Context(), d); err != nil {
				return err
			}
			a.out.println(successStyle.Render(fmt.Sprintf("Done. Files are in %s", a.saver.Dir())))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&each, "each", "e", false, "Download collection tracks one by one instead of as an archive")
	cmd.Flags().BoolVarP(&playlist, "playlist", "p", false, "Write a playlist file (with --each)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (overrides settings)")
	return cmd
}

// getDriver fetches a link, starts the downloads it calls for and waits
// until every started download has been saved or has failed.
type getDriver struct {
	locator  string
	each     bool
	playlist bool
	app      *app

	finish   func(error)
	planned  bool
	result   *model.Result
	pending  int
	failures int

	// saved maps item IDs to the files written for them.
	saved map[string]string
}

func (d *getDriver) start(s *session.Session, finish func(error)) {
	d.finish = finish
	if err := s.Fetch(d.locator); err != nil {
		finish(err)
	}
}

func (d *getDriver) change(s *session.Session, snap session.Snapshot) {
	if d.planned {
		return
	}
	switch snap.Status {
	case session.StatusError:
		d.finish(fmt.Errorf("%w: %s", errFetch, snap.Message))
	case session.StatusSuccess:
		d.planned = true
		d.result = snap.Result
		d.plan(s)
	}
}

func (d *getDriver) plan(s *session.Session) {
	r := d.result
	if r.IsCollection() && !d.each {
		d.pending = 1
		if _, err := s.StartArchive(); err != nil {
			d.finish(err)
		}
		return
	}

	items := r.Items()
	if len(items) == 0 {
		d.finish(fmt.Errorf("%s %q has no tracks", r.Type(), r.Name()))
		return
	}
	d.pending = len(items)
	for _, t := range items {
		if err := s.DownloadItem(t.ID); err != nil {
			d.finish(err)
			return
		}
	}
}

func (d *getDriver) event(_ *session.Session, e session.Event) {
	switch {
	case e.Kind == session.EventSaved:
		if e.ItemID != "" {
			d.saved[e.ItemID] = e.Path
		}
		d.settle(false)
	case e.Kind == session.EventSaveFailed:
		d.settle(true)
	case e.Kind == session.EventItem && e.Level == session.LevelError:
		d.settle(true)
	case e.Kind == session.EventArchive && e.Level == session.LevelError:
		d.settle(true)
	}
}

// settle accounts for one finished download.
func (d *getDriver) settle(failed bool) {
	if d.pending == 0 {
		return
	}
	d.pending--
	if failed {
		d.failures++
	}
	if d.pending > 0 {
		return
	}

	if d.playlist && d.each && d.result.IsCollection() {
		if err := d.writePlaylist(); err != nil {
			d.finish(err)
			return
		}
	}
	if d.failures > 0 {
		total := d.result.Len()
		if d.result.IsCollection() && !d.each {
			total = 1
		}
		d.finish(fmt.Errorf("%d of %d downloads failed", d.failures, total))
		return
	}
	d.finish(nil)
}

// writePlaylist lists the saved files in result order.
func (d *getDriver) writePlaylist() error {
	var entries []audio.PlaylistEntry
	for _, t := range d.result.Items() {
		path, ok := d.saved[t.ID]
		if !ok {
			continue
		}
		entries = append(entries, audio.PlaylistEntry{
			Path:   filepath.Base(path),
			Title:  t.Name,
			Artist: t.Artist,
		})
	}
	if len(entries) == 0 {
		return nil
	}
	_, err := d.app.saver.WritePlaylist(d.result.Name(), entries)
	return err
}
