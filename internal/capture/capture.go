// Package capture describes camera and microphone access: the constraints a
// capture request carries, the handle it yields, and how failures are classified.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"

	"github.com/pion/webrtc/v4"
)

// FacingMode picks which camera to use on devices with more than one
type FacingMode string

const (
	FacingUser        FacingMode = "user"
	FacingEnvironment FacingMode = "environment"
)

// ParseFacingMode accepts the browser names plus front/back aliases.
func ParseFacingMode(s string) (FacingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "front":
		return FacingUser, nil
	case "environment", "back", "rear":
		return FacingEnvironment, nil
	default:
		return "", fmt.Errorf("unknown facing mode %q (want user or environment)", s)
	}
}

// LabelFacing guesses the facing mode from a device label. It returns an
// empty mode when the label says nothing about it.
func LabelFacing(label string) FacingMode {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "back"), strings.Contains(l, "rear"), strings.Contains(l, "environment"):
		return FacingEnvironment
	case strings.Contains(l, "front"), strings.Contains(l, "user"), strings.Contains(l, "facetime"):
		return FacingUser
	default:
		return ""
	}
}

// IntRange is an ideal value with an upper bound
type IntRange struct {
	Ideal int
	Max   int
}

// FloatRange is an ideal value with an upper bound
type FloatRange struct {
	Ideal float32
	Max   float32
}

// Constraints is a capture request
type Constraints struct {
	Width      IntRange
	Height     IntRange
	FrameRate  FloatRange
	FacingMode FacingMode
	Audio      bool

	// DeviceID pins a specific device and overrides FacingMode
	DeviceID string
}

// TrackInfo describes a captured track for the local preview
type TrackInfo struct {
	ID    string
	Kind  string
	Label string
}

// Labels of the test-pattern drivers.
const (
	TestVideoLabel = "VideoTest"
	TestAudioLabel = "AudioTest"
)

// Device is an enumerated capture device
type Device struct {
	ID     string
	Kind   string
	Label  string
	Facing FacingMode
	// Synthetic devices generate a test pattern or tone
	Synthetic bool
}

// PickDevice returns the ID of the first device of kind whose Synthetic flag
// equals synthetic, preferring one facing the requested way. It returns an
// empty ID when nothing fits.
func PickDevice(devices []Device, kind string, synthetic bool, facing FacingMode) string {
	var first string
	for _, d := range devices {
		if d.Kind != kind || d.Synthetic != synthetic {
			continue
		}
		if facing != "" && d.Facing == facing {
			return d.ID
		}
		if first == "" {
			first = d.ID
		}
	}
	return first
}

// Handle is an active capture grant and its tracks.
type Handle interface {
	// Tracks returns the tracks to attach to a peer connection. It returns nil
	// once the handle is closed.
	Tracks() []webrtc.TrackLocal
	Info() []TrackInfo
	// Close releases the devices. Calling it more than once is a no-op.
	Close() error
}

// Capturer opens capture devices.
type Capturer interface {
	Open(ctx context.Context, c Constraints) (Handle, error)
}

// CodecRegistrar is implemented by capturers that encode media themselves and
// need their codecs present on the peer connection's media engine.
type CodecRegistrar interface {
	RegisterCodecs(m *webrtc.MediaEngine) error
}

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrDeviceBusy       = errors.New("device busy")
)

// ErrorKind is the user-facing class of a capture failure
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindPermissionDenied
	KindDeviceNotFound
	KindDeviceBusy
)

func (k ErrorKind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission-denied"
	case KindDeviceNotFound:
		return "device-not-found"
	case KindDeviceBusy:
		return "device-busy"
	default:
		return "other"
	}
}

// Classify maps a capture error onto an ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindOther
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, fs.ErrPermission),
		errors.Is(err, syscall.EACCES),
		errors.Is(err, syscall.EPERM):
		return KindPermissionDenied
	case errors.Is(err, ErrDeviceBusy), errors.Is(err, syscall.EBUSY):
		return KindDeviceBusy
	case errors.Is(err, ErrDeviceNotFound),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ENODEV):
		return KindDeviceNotFound
	default:
		return KindOther
	}
}
