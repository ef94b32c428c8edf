package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BioHazard786/camdrop/internal/capture"
	"github.com/BioHazard786/camdrop/internal/capture/device"
	"github.com/BioHazard786/camdrop/internal/config"
	"github.com/BioHazard786/camdrop/internal/dns"
	"github.com/BioHazard786/camdrop/internal/negotiation"
	"github.com/BioHazard786/camdrop/internal/recorder"
	"github.com/BioHazard786/camdrop/internal/rtc"
	"github.com/BioHazard786/camdrop/internal/session"
	"github.com/BioHazard786/camdrop/internal/ui"
	"github.com/spf13/cobra"
)

var (
	flagSTUN          []string
	flagTURN          string
	flagTURNUser      string
	flagTURNPass      string
	flagRelay         bool
	flagGatherTimeout time.Duration

	flagSource string
	flagWidth  int
	flagHeight int
	flagFPS    float32
	flagFacing string
	flagAudio  bool
	flagDevice string

	flagRecord  string
	flagCompact bool
)

func addSessionFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringSliceVarP(&flagSTUN, "stun", "s", nil, "STUN server URL (repeatable)")
	f.StringVarP(&flagTURN, "turn", "t", "", "TURN server URL")
	f.StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username")
	f.StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password")
	f.BoolVarP(&flagRelay, "relay", "r", false, "Force relay mode (requires a TURN server)")
	f.DurationVar(&flagGatherTimeout, "gather-timeout", config.DefaultGatherTimeout, "How long to wait for ICE candidates before printing a description")

	f.StringVar(&flagSource, "source", string(config.SourceCamera), "Media source: camera, or test for a generated pattern and tone")
	f.IntVar(&flagWidth, "width", 0, "Ideal capture width")
	f.IntVar(&flagHeight, "height", 0, "Ideal capture height")
	f.Float32Var(&flagFPS, "fps", 0, "Ideal capture frame rate")
	f.StringVar(&flagFacing, "facing", string(capture.FacingUser), "Camera facing mode: user or environment")
	f.BoolVarP(&flagAudio, "audio", "a", false, "Capture the microphone too")
	f.StringVar(&flagDevice, "device", "", "Capture device ID (see 'camdrop devices')")

	f.StringVar(&flagRecord, "record", "", "Directory to record the peer's tracks into")
	f.BoolVarP(&flagCompact, "compact", "c", false, "Print descriptions in the compact encoding")
}

func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		STUNServers:   flagSTUN,
		TURNServer:    flagTURN,
		TURNUser:      flagTURNUser,
		TURNPass:      flagTURNPass,
		ForceRelay:    flagRelay,
		GatherTimeout: flagGatherTimeout,
		Source:        flagSource,
		Width:         flagWidth,
		Height:        flagHeight,
		FrameRate:     flagFPS,
		FacingMode:    flagFacing,
		Audio:         flagAudio,
		DeviceID:      flagDevice,
		RecordDir:     flagRecord,
		Compact:       flagCompact,
	})
	if err != nil {
		return nil, session.NewError("load config", session.KindPrecondition, err)
	}
	return cfg, nil
}

// NewSession wires the capturer, connection factory and recorder chosen by cfg.
func NewSession(ctx context.Context, cfg *config.Config) (*session.Session, error) {
	newCapturer := device.New
	if cfg.Source == config.SourceTest {
		newCapturer = device.NewTestPattern
	}
	dev, err := newCapturer()
	if err != nil {
		return nil, session.NewError("open encoders", session.KindCaptureOther, err)
	}

	cfg.STUNServers = dns.ResolveSTUN(ctx, cfg.STUNServers)
	factory, err := rtc.NewFactory(cfg, dev)
	if err != nil {
		return nil, session.NewError("create connection factory", session.KindNegotiation, err)
	}

	var opts []session.Option
	if cfg.RecordDir != "" {
		rec, err := recorder.New(cfg.RecordDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithRecorder(rec))
		slog.Info("Recording remote tracks", "dir", rec.Dir())
	}

	return session.New(cfg, dev, factory, opts...), nil
}

func startCamera(ctx context.Context, s *session.Session) error {
	stopSpinner := ui.RunSpinner("Requesting camera access...")
	err := s.StartCapture(ctx)
	stopSpinner()
	if err != nil {
		return errors.New(s.Snapshot().Status.Text)
	}
	ui.PrintSuccess(s.Snapshot().Status.Text)
	return nil
}

type pasted struct {
	text string
	err  error
}

// readDescription reads a pasted description from stdin until it decodes.
// A canceled ctx abandons the read.
func readDescription(ctx context.Context, what string) (string, error) {
	fmt.Fprintf(os.Stderr, "\n%s Paste the %s and press Enter:\n", ui.IconCopy, what)

	done := make(chan pasted, 1)
	go func() {
		desc, err := negotiation.ReadPasted(os.Stdin)
		if err != nil {
			done <- pasted{err: err}
			return
		}
		text, err := negotiation.Encode(desc, negotiation.FormatJSON)
		done <- pasted{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case p := <-done:
		return p.text, p.err
	}
}

// printDescription writes a description to stdout, optionally as a QR code.
func printDescription(label, text string, qr bool) {
	fmt.Fprintf(os.Stderr, "\n%s %s:\n\n", ui.IconCopy, label)
	fmt.Println(text)

	if !qr {
		return
	}
	code, err := negotiation.QRCode(text)
	if err != nil {
		ui.PrintWarning(fmt.Sprintf("Cannot render QR code: %v (try --compact)", err))
		return
	}
	fmt.Fprintf(os.Stderr, "\n%s Or scan:\n%s\n", ui.IconQR, code)
}

// waitForPeer blocks until the connection fails or closes, or ctx ends.
// Everything is read from the snapshot; events only wake the loop early
// since they may have been dropped while nobody was listening.
func waitForPeer(ctx context.Context, s *session.Session) error {
	stopSpinner := ui.RunWaitingSpinner("Waiting for the peer to connect...")
	defer stopSpinner()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	events := s.Events()
	w := ui.NewPeerWatch(s.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
		case <-ticker.C:
		}

		tracks, changed := w.Next(s.Snapshot())
		for _, t := range tracks {
			stopSpinner()
			ui.PrintInfof("Receiving %s (%s)", t.Kind, t.Codec)
		}
		if !changed {
			continue
		}

		switch w.Phase() {
		case session.PhaseConnected:
			stopSpinner()
			ui.PrintSuccess("Peer connected successfully. Press Ctrl+C to stop streaming")
		case session.PhaseDisconnected:
			ui.PrintWarning("Peer disconnected")
		case session.PhaseFailed:
			stopSpinner()
			return errors.New("connection failed")
		case session.PhaseClosed:
			return nil
		}
	}
}
