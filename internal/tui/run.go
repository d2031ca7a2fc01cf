package tui

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/handiism/spotidown/internal/api"
	"github.com/handiism/spotidown/internal/config"
	"github.com/handiism/spotidown/internal/download"
	"github.com/handiism/spotidown/internal/eventloop"
	"github.com/handiism/spotidown/internal/history"
	xhttp "github.com/handiism/spotidown/internal/http"
	"github.com/handiism/spotidown/internal/session"
)

// EnvDebug enables the debug log file when set.
const EnvDebug = "SPOTIDOWN_DEBUG"

type (
	// callbackMsg runs a scheduled continuation inside Update, which makes
	// the Bubble Tea event loop the session's loop.
	callbackMsg func()

	// saverMsg carries a progress event from a background save.
	saverMsg download.ProgressEvent
)

// dispatcher posts loop callbacks to the running program.
type dispatcher struct {
	program *tea.Program
}

func (d *dispatcher) dispatch(fn func()) {
	d.program.Send(callbackMsg(fn))
}

func (d *dispatcher) saverProgress(e download.ProgressEvent) {
	d.program.Send(saverMsg(e))
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	debug := os.Getenv(EnvDebug) != ""
	if debug {
		f, err := tea.LogToFile("spotidown-debug.log", "debug")
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer f.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpClient := xhttp.NewClient(settings.RequestTimeoutDuration())
	client, err := api.NewClient(settings.APIBaseURL, httpClient)
	if err != nil {
		return err
	}
	store, err := history.Open(settings.HistoryPath, settings.HistoryLimit)
	if err != nil {
		return err
	}

	d := &dispatcher{}
	loop := eventloop.New(ctx, d.dispatch, settings.MaxConcurrentRequests)

	m := NewModel(settings, store)
	onEvent := m.logs.addEvent
	if debug {
		log.Printf("backend %s, saving to %s", client.BaseURL(), settings.DownloadsPath)
		onEvent = func(e session.Event) {
			log.Printf("%s: %s", e.Level, e.Message)
			m.logs.addEvent(e)
		}
	}
	m.attach(session.New(settings, session.Deps{
		Scheduler: loop,
		Backend:   client,
		Saver:     download.NewSaver(settings, xhttp.NewStreamingClient(settings.RequestTimeoutDuration()), d.saverProgress),
		Recorder:  store,
		OnEvent:   onEvent,
	}))

	p := tea.NewProgram(m, tea.WithAltScreen())
	d.program = p

	_, err = p.Run()
	return err
}
