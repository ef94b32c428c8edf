package rtc

import (
	"sync/atomic"

	"github.com/pion/rtp"
	pion "github.com/pion/webrtc/v4"
)

// Gate wraps a local track so its outgoing packets can be held back while
// the track stays bound and negotiated. Paused packets are dropped.
type Gate struct {
	pion.TrackLocal
	paused  atomic.Bool
	dropped atomic.Uint64
}

func NewGate(t pion.TrackLocal) *Gate {
	return &Gate{TrackLocal: t}
}

// Gates wraps every track.
func Gates(tracks []pion.TrackLocal) []*Gate {
	out := make([]*Gate, len(tracks))
	for i, t := range tracks {
		out[i] = NewGate(t)
	}
	return out
}

// Locals returns the gates as tracks to attach to a peer connection.
func Locals(gates []*Gate) []pion.TrackLocal {
	out := make([]pion.TrackLocal, len(gates))
	for i, g := range gates {
		out[i] = g
	}
	return out
}

func (g *Gate) SetPaused(paused bool) { g.paused.Store(paused) }
func (g *Gate) Paused() bool         { return g.paused.Load() }

// Dropped counts packets discarded while paused.
func (g *Gate) Dropped() uint64 { return g.dropped.Load() }

func (g *Gate) Bind(ctx pion.TrackLocalContext) (pion.RTPCodecParameters, error) {
	return g.TrackLocal.Bind(gatedContext{TrackLocalContext: ctx, gate: g})
}

func (g *Gate) Unbind(ctx pion.TrackLocalContext) error {
	return g.TrackLocal.Unbind(gatedContext{TrackLocalContext: ctx, gate: g})
}

type gatedContext struct {
	pion.TrackLocalContext
	gate *Gate
}

func (c gatedContext) WriteStream() pion.TrackLocalWriter {
	return gatedWriter{w: c.TrackLocalContext.WriteStream(), gate: c.gate}
}

type gatedWriter struct {
	w    pion.TrackLocalWriter
	gate *Gate
}

func (w gatedWriter) WriteRTP(header *rtp.Header, payload []byte) (int, error) {
	if w.gate.Paused() {
		w.gate.dropped.Add(1)
		return header.MarshalSize() + len(payload), nil
	}
	return w.w.WriteRTP(header, payload)
}

func (w gatedWriter) Write(b []byte) (int, error) {
	if w.gate.Paused() {
		w.gate.dropped.Add(1)
		return len(b), nil
	}
	return w.w.Write(b)
}
