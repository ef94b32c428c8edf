// Package capturetest provides an in-memory Capturer for tests.
package capturetest

import (
	"context"
	"sync"

	"github.com/BioHazard786/camdrop/internal/capture"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

// Capturer hands out sample tracks instead of touching real devices.
type Capturer struct {
	// Err, when set, is returned by every Open call
	Err error

	mu      sync.Mutex
	opened  int
	handles []*Handle
	last    capture.Constraints
}

// Open returns a new Handle with a VP8 track and, when requested, an Opus track.
func (c *Capturer) Open(ctx context.Context, cons capture.Constraints) (capture.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.opened++
	c.last = cons
	if c.Err != nil {
		return nil, c.Err
	}

	streamID := "camdrop-" + uuid.NewString()
	video, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
		"video-"+uuid.NewString(), streamID,
	)
	if err != nil {
		return nil, err
	}

	h := &Handle{tracks: []webrtc.TrackLocal{video}}
	if cons.Audio {
		audio, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
			"audio-"+uuid.NewString(), streamID,
		)
		if err != nil {
			return nil, err
		}
		h.tracks = append(h.tracks, audio)
	}

	c.handles = append(c.handles, h)
	return h, nil
}

// Opened reports how many times Open was called.
func (c *Capturer) Opened() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

// LastConstraints returns the constraints of the most recent Open call.
func (c *Capturer) LastConstraints() capture.Constraints {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Handles returns every handle produced so far.
func (c *Capturer) Handles() []*Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Handle(nil), c.handles...)
}

// Handle is a fake capture grant
type Handle struct {
	mu     sync.Mutex
	tracks []webrtc.TrackLocal
	closed bool
}

func (h *Handle) Tracks() []webrtc.TrackLocal {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	return append([]webrtc.TrackLocal(nil), h.tracks...)
}

func (h *Handle) Info() []capture.TrackInfo {
	var out []capture.TrackInfo
	for _, t := range h.Tracks() {
		out = append(out, capture.TrackInfo{ID: t.ID(), Kind: t.Kind().String(), Label: "test " + t.Kind().String()})
	}
	return out
}

func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Closed reports whether Close was called.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
