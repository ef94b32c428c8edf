// Package device captures cameras and microphones through pion/mediadevices.
// The test-pattern drivers are registered too and used only when asked for.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BioHazard786/camdrop/internal/capture"
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/audiotest"  // registers the test tone
	_ "github.com/pion/mediadevices/pkg/driver/camera"     // registers camera adapter
	_ "github.com/pion/mediadevices/pkg/driver/microphone" // registers microphone adapter
	_ "github.com/pion/mediadevices/pkg/driver/videotest"  // registers the test pattern
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pion/webrtc/v4"
)

const (
	videoBitRate = 1_000_000
	audioBitRate = 32_000
)

// Capturer opens local devices and encodes them as VP8 and Opus.
type Capturer struct {
	selector  *mediadevices.CodecSelector
	synthetic bool
}

// New prepares the encoders for real devices. It fails when the codec
// libraries are unusable.
func New() (*Capturer, error) {
	return newCapturer(false)
}

// NewTestPattern captures the test-pattern video and tone drivers instead of
// real devices. The media is still encoded and sent.
func NewTestPattern() (*Capturer, error) {
	return newCapturer(true)
}

func newCapturer(synthetic bool) (*Capturer, error) {
	vp8Params, err := vpx.NewVP8Params()
	if err != nil {
		return nil, fmt.Errorf("create VP8 params: %w", err)
	}
	vp8Params.BitRate = videoBitRate

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, fmt.Errorf("create Opus params: %w", err)
	}
	opusParams.BitRate = audioBitRate

	return &Capturer{
		selector: mediadevices.NewCodecSelector(
			mediadevices.WithVideoEncoders(&vp8Params),
			mediadevices.WithAudioEncoders(&opusParams),
		),
		synthetic: synthetic,
	}, nil
}

// RegisterCodecs adds the encoder codecs to a media engine.
func (c *Capturer) RegisterCodecs(m *webrtc.MediaEngine) error {
	c.selector.Populate(m)
	return nil
}

// Open asks the platform for the camera (and microphone when requested).
func (c *Capturer) Open(ctx context.Context, cons capture.Constraints) (capture.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A missing camera is an error, never the test pattern.
	devices := Devices()
	cameraID := cons.DeviceID
	if cameraID == "" {
		cameraID = capture.PickDevice(devices, "video", c.synthetic, cons.FacingMode)
	}
	if cameraID == "" {
		return nil, fmt.Errorf("%w: no camera found", capture.ErrDeviceNotFound)
	}

	streamConstraints := mediadevices.MediaStreamConstraints{
		Video: func(mc *mediadevices.MediaTrackConstraints) {
			mc.DeviceID = prop.String(cameraID)
			mc.Width = prop.IntRanged{Ideal: cons.Width.Ideal, Max: cons.Width.Max}
			mc.Height = prop.IntRanged{Ideal: cons.Height.Ideal, Max: cons.Height.Max}
			mc.FrameRate = prop.FloatRanged{Ideal: cons.FrameRate.Ideal, Max: cons.FrameRate.Max}
		},
		Codec: c.selector,
	}
	if cons.Audio {
		micID := capture.PickDevice(devices, "audio", c.synthetic, "")
		if micID == "" {
			return nil, fmt.Errorf("%w: no microphone found", capture.ErrDeviceNotFound)
		}
		streamConstraints.Audio = func(mc *mediadevices.MediaTrackConstraints) {
			mc.DeviceID = prop.String(micID)
			mc.ChannelCount = prop.Int(1)
		}
	}

	stream, err := mediadevices.GetUserMedia(streamConstraints)
	if err != nil {
		return nil, wrapError(err)
	}

	h := &handle{tracks: stream.GetTracks()}
	for _, t := range h.tracks {
		t.OnEnded(func(err error) {
			slog.Debug("capture track ended", "id", t.ID(), "error", err)
		})
	}
	return h, nil
}

// Devices lists cameras and microphones known to the registered drivers.
func Devices() []capture.Device {
	var out []capture.Device
	for _, info := range mediadevices.EnumerateDevices() {
		kind := "video"
		switch info.Kind {
		case mediadevices.AudioInput:
			kind = "audio"
		case mediadevices.VideoInput:
		default:
			continue
		}
		out = append(out, capture.Device{
			ID:        info.DeviceID,
			Kind:      kind,
			Label:     info.Label,
			Facing:    capture.LabelFacing(info.Label),
			Synthetic: info.Label == capture.TestVideoLabel || info.Label == capture.TestAudioLabel,
		})
	}
	return out
}

// wrapError attaches the capture sentinels to mediadevices failures that only
// carry text.
func wrapError(err error) error {
	if capture.Classify(err) != capture.KindOther {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "not allowed"):
		return fmt.Errorf("%w: %v", capture.ErrPermissionDenied, err)
	case strings.Contains(msg, "busy"), strings.Contains(msg, "in use"):
		return fmt.Errorf("%w: %v", capture.ErrDeviceBusy, err)
	case strings.Contains(msg, "failed to find"), strings.Contains(msg, "not found"), strings.Contains(msg, "no device"):
		return fmt.Errorf("%w: %v", capture.ErrDeviceNotFound, err)
	default:
		return err
	}
}

type handle struct {
	mu     sync.Mutex
	tracks []mediadevices.Track
	closed bool
}

func (h *handle) Tracks() []webrtc.TrackLocal {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	out := make([]webrtc.TrackLocal, len(h.tracks))
	for i, t := range h.tracks {
		out[i] = t
	}
	return out
}

func (h *handle) Info() []capture.TrackInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	out := make([]capture.TrackInfo, len(h.tracks))
	for i, t := range h.tracks {
		out[i] = capture.TrackInfo{ID: t.ID(), Kind: t.Kind().String(), Label: t.StreamID()}
	}
	return out
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	var firstErr error
	for _, t := range h.tracks {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
