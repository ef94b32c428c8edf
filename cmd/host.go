package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/BioHazard786/camdrop/internal/session"
	"github.com/BioHazard786/camdrop/internal/ui"
	"github.com/spf13/cobra"
)

var flagQR bool

var hostCmd = &cobra.Command{
	Use:     "host",
	Aliases: []string{"h"},
	Short:   "Start the camera and create a room",
	Long: `Start the camera, create a room and print the offer. Paste the offer on the
other device, then paste its answer back here.

Examples:
  camdrop host
  camdrop host --audio --compact --qr
  camdrop host --record ./recordings`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return hostRoom(cmd)
	},
}

func hostRoom(cmd *cobra.Command) error {
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

	stopSpinner := ui.RunConnectionSpinner("Gathering network candidates...")
	err = s.Host(ctx)
	stopSpinner()
	if err != nil {
		return errors.New(s.Snapshot().Status.Text)
	}

	snap := s.Snapshot()
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, ui.NewRoomInfo(snap.RoomID, session.RoleHost).View())
	printDescription("Offer", snap.LocalDescription, flagQR)

	for {
		answer, err := readDescription(ctx, "answer")
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if _, err := s.ApplyRemote(ctx, answer); err != nil {
			ui.PrintError(s.Snapshot().Status.Text)
			continue
		}
		break
	}
	ui.PrintSuccess(s.Snapshot().Status.Text)

	return waitForPeer(ctx, s)
}

func init() {
	rootCmd.AddCommand(hostCmd)
	hostCmd.Flags().BoolVarP(&flagQR, "qr", "q", false, "Also print the offer as a QR code")
}
