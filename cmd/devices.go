package cmd

import (
	"github.com/BioHazard786/camdrop/internal/capture/device"
	"github.com/BioHazard786/camdrop/internal/ui"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"d"},
	Short:   "List cameras and microphones",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.RenderDevices(device.Devices())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
