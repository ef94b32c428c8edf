package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/BioHazard786/camdrop/internal/room"
	"github.com/BioHazard786/camdrop/internal/session"
	"github.com/BioHazard786/camdrop/internal/ui"
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:     "join <room-code|url>",
	Aliases: []string{"j"},
	Short:   "Start the camera and answer a host's offer",
	Long: `Start the camera and join a room. Paste the host's offer, then send the
printed answer back to the host.

Examples:
  camdrop join ABC123
  camdrop join https://example.com/r/ABC123
  camdrop join ABC123 --record ./recordings`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := room.ParseInput(args[0])
		if err != nil {
			return err
		}
		return joinRoom(cmd, code)
	},
}

func joinRoom(cmd *cobra.Command, code string) error {
	ctx := cmd.Context()

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	s, err := NewSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		s.Close()
		fmt.Fprintln(os.Stderr)
		ui.RenderSessionSummary(s.Snapshot())
	}()

	if err := startCamera(ctx, s); err != nil {
		return err
	}
	if err := s.Join(code); err != nil {
		return errors.New(s.Snapshot().Status.Text)
	}
	fmt.Fprintln(os.Stderr, ui.NewRoomInfo(code, session.RoleJoiner).View())

	var answer string
	for {
		offer, err := readDescription(ctx, "offer")
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		stopSpinner := ui.RunConnectionSpinner("Creating answer...")
		answer, err = s.ApplyRemote(ctx, offer)
		stopSpinner()
		if err != nil {
			ui.PrintError(s.Snapshot().Status.Text)
			continue
		}
		break
	}

	ui.PrintSuccess(s.Snapshot().Status.Text)
	printDescription("Answer", answer, flagQR)

	return waitForPeer(ctx, s)
}

func init() {
	rootCmd.AddCommand(joinCmd)
	joinCmd.Flags().BoolVarP(&flagQR, "qr", "q", false, "Also print the answer as a QR code")
}
