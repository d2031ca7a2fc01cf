package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/spotidown/internal/download"
	"github.com/handiism/spotidown/internal/session"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1DB954"))
)

// printer writes progress lines. Session events arrive on the loop and
// saver progress on worker goroutines, so writes are serialized.
type printer struct {
	mu      sync.Mutex
	verbose bool
}

func (p *printer) event(e session.Event) {
	p.print(e.Level, e.Message)
}

func (p *printer) progress(e download.ProgressEvent) {
	level := session.LevelInfo
	switch e.Level {
	case download.LevelVerbose:
		level = session.LevelVerbose
	case download.LevelWarning:
		level = session.LevelWarning
	case download.LevelError:
		level = session.LevelError
	case download.LevelSuccess:
		level = session.LevelSuccess
	}
	p.print(level, e.Message)
}

func (p *printer) print(level session.Level, message string) {
	if level == session.LevelVerbose && !p.verbose {
		return
	}

	var line string
	switch level {
	case session.LevelError:
		line = errorStyle.Render("✗ " + message)
	case session.LevelWarning:
		line = warningStyle.Render("⚠ " + message)
	case session.LevelSuccess:
		line = successStyle.Render("✓ " + message)
	case session.LevelVerbose:
		line = dimStyle.Render("  " + message)
	default:
		line = "• " + message
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if level == session.LevelError {
		fmt.Fprintln(os.Stderr, line)
		return
	}
	fmt.Println(line)
}

func (p *printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Println(s)
}
