package ui

import "github.com/BioHazard786/camdrop/internal/session"

// PeerWatch remembers what a line-by-line session has already reported, so
// progress can be printed from snapshots alone.
type PeerWatch struct {
	phase  session.Phase
	tracks int
}

func NewPeerWatch(s session.Snapshot) *PeerWatch {
	return &PeerWatch{phase: s.Phase, tracks: len(s.RemoteTracks)}
}

func (w *PeerWatch) Phase() session.Phase { return w.phase }

// Next returns the remote tracks not reported yet and whether the phase
// changed since the previous snapshot.
func (w *PeerWatch) Next(s session.Snapshot) ([]session.RemoteTrack, bool) {
	var fresh []session.RemoteTrack
	switch n := len(s.RemoteTracks); {
	case n > w.tracks:
		fresh = s.RemoteTracks[w.tracks:]
		w.tracks = n
	case n < w.tracks:
		w.tracks = n
	}

	changed := s.Phase != w.phase
	w.phase = s.Phase
	return fresh, changed
}
