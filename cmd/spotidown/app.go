package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/spotidown/internal/api"
	"github.com/handiism/spotidown/internal/config"
	"github.com/handiism/spotidown/internal/download"
	"github.com/handiism/spotidown/internal/eventloop"
	"github.com/handiism/spotidown/internal/history"
	xhttp "github.com/handiism/spotidown/internal/http"
	"github.com/handiism/spotidown/internal/session"
)

// app holds the collaborators shared by the subcommands.
type app struct {
	settings *config.Settings
	client   *api.Client
	saver    *download.Saver
	store    *history.Store
	out      *printer
}

func newApp(mutate func(*config.Settings)) (*app, error) {
	settings, err := config.Resolve(configPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if mutate != nil {
		mutate(settings)
	}

	out := &printer{verbose: verbose}
	httpClient := xhttp.NewClient(settings.RequestTimeoutDuration())
	client, err := api.NewClient(settings.APIBaseURL, httpClient)
	if err != nil {
		return nil, err
	}
	store, err := history.Open(settings.HistoryPath, settings.HistoryLimit)
	if err != nil {
		return nil, err
	}

	return &app{
		settings: settings,
		client:   client,
		saver:    download.NewSaver(settings, xhttp.NewStreamingClient(settings.RequestTimeoutDuration()), out.progress),
		store:    store,
		out:      out,
	}, nil
}

// driver reacts to session notifications. Every method runs on the loop.
type driver interface {
	start(s *session.Session, finish func(error))
	event(s *session.Session, e session.Event)
	change(s *session.Session, snap session.Snapshot)
}

// drive runs a session on a queue loop until the driver finishes or ctx
// is cancelled.
func (a *app) drive(ctx context.Context, d driver) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := eventloop.NewQueue()
	loop := eventloop.New(runCtx, q.Post, a.settings.MaxConcurrentRequests)

	var sess *session.Session
	done := make(chan error, 1)
	var once sync.Once
	finish := func(err error) {
		once.Do(func() {
			sess.Close()
			done <- err
		})
	}

	sess = session.New(a.settings, session.Deps{
		Scheduler: loop,
		Backend:   a.client,
		Saver:     a.saver,
		Recorder:  a.store,
		OnEvent: func(e session.Event) {
			a.out.event(e)
			d.event(sess, e)
		},
		OnChange: func(snap session.Snapshot) {
			d.change(sess, snap)
		},
	})

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return q.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		q.Post(func() { d.start(sess, finish) })
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	return g.Wait()
}

// errFetch carries the message of a failed fetch.
var errFetch = errors.New("fetch failed")
