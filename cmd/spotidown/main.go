package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/handiism/spotidown/internal/config"
)

var (
	configPath string
	verbose    bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "spotidown: %v\n", err)
		if ctx.Err() != nil {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spotidown",
		Short: "Download music from Spotify links",
		Long: `Spotidown asks a download backend to resolve Spotify links into audio files.
Tracks are downloaded one by one; albums and playlists can also be fetched as a
single zip archive built by the server. For interactive mode, use spotidown-tui.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Settings file (JSON or YAML, default "+config.DefaultPath()+")")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")
	cmd.AddCommand(
		newInfoCmd(),
		newGetCmd(),
		newHistoryCmd(),
	)
	return cmd
}
