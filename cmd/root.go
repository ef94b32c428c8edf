package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BioHazard786/camdrop/internal/logging"
	"github.com/BioHazard786/camdrop/internal/ui"
	"github.com/BioHazard786/camdrop/internal/version"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "camdrop",
	Short: "Stream a camera to another device over WebRTC with a copy-paste handshake",
	Long: `camdrop captures a camera (and optionally a microphone) and streams it to
another device over WebRTC. There is no signaling server: the offer and the
answer are copied between the two devices by hand.

Run without a subcommand for the interactive terminal UI, or use 'host' and
'join' for a line-by-line session.`,
	Version: version.Version,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

func runInteractive(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	// The screen belongs to the UI; logs go to a file.
	logFile, err := logging.InitFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	s, err := NewSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	return ui.Run(ctx, s)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

func init() {
	addSessionFlags(rootCmd)
}
