// Package session owns one capture handle and at most one peer connection,
// and drives them through the manual offer/answer exchange.
//
// All state lives in a single Snapshot value. User operations and platform
// callbacks are turned into Events and applied with Snapshot.Apply; nothing
// else writes the snapshot.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/BioHazard786/camdrop/internal/capture"
	"github.com/BioHazard786/camdrop/internal/config"
	"github.com/BioHazard786/camdrop/internal/negotiation"
	"github.com/BioHazard786/camdrop/internal/recorder"
	"github.com/BioHazard786/camdrop/internal/room"
	"github.com/BioHazard786/camdrop/internal/rtc"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
)

const eventBuffer = 64

// Option configures a Session
type Option func(*Session)

// WithRecorder writes every remote track into r.
func WithRecorder(r *recorder.Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithRoomIDs replaces the room code generator.
func WithRoomIDs(gen func() (string, error)) Option {
	return func(s *Session) { s.newRoomID = gen }
}

type Session struct {
	cfg       *config.Config
	capturer  capture.Capturer
	factory   *rtc.Factory
	recorder  *recorder.Recorder
	newRoomID func() (string, error)
	format    negotiation.Format

	// opMu serializes user operations. Stop does not take it so that it can
	// interrupt an operation blocked on capture or candidate gathering.
	opMu sync.Mutex

	// mu guards everything below. It is never held while calling into pion,
	// whose callbacks may run synchronously and dispatch events.
	mu     sync.Mutex
	snap   Snapshot
	gen    uint64
	handle capture.Handle
	gates  []*rtc.Gate
	pc     *webrtc.PeerConnection
	events chan Event
	closed bool
	// cancelOp cancels the running user operation; Stop calls it.
	cancelOp context.CancelFunc
}

func New(cfg *config.Config, capturer capture.Capturer, factory *rtc.Factory, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg,
		capturer:  capturer,
		factory:   factory,
		newRoomID: room.NewID,
		snap:      Initial(),
		events:    make(chan Event, eventBuffer),
	}
	if cfg.Compact {
		s.format = negotiation.FormatCompact
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

// Events delivers every applied event. Events are dropped when the buffer is
// full; Snapshot stays authoritative. The channel is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.events
}

// applyLocked must be called with mu held.
func (s *Session) applyLocked(ev Event) {
	if s.closed {
		return
	}
	s.snap = s.snap.Apply(ev)

	if ev.Kind != EventCandidate {
		slog.Debug("Session event", "event", ev.Kind.String(), "state", s.snap.State.String(), "phase", s.snap.Phase.String())
	}
	select {
	case s.events <- ev:
	default:
		slog.Debug("Dropping session event, nobody is listening", "event", ev.Kind.String())
	}
}

// dispatch applies ev unless the session was stopped or closed since gen was
// taken. It reports whether ev was applied.
func (s *Session) dispatch(gen uint64, ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return false
	}
	s.applyLocked(ev)
	return true
}

// beginOp derives the context of a user operation so that Stop can abandon a
// blocked capture or candidate gathering. Callers hold opMu.
func (s *Session) beginOp(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelOp = cancel
	s.mu.Unlock()
	return ctx, func() {
		s.mu.Lock()
		s.cancelOp = nil
		s.mu.Unlock()
		cancel()
	}
}

// StartCapture opens the camera (and microphone when configured).
func (s *Session) StartCapture(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	ctx, end := s.beginOp(ctx)
	defer end()

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.handle != nil:
		s.mu.Unlock()
		return nil
	case s.snap.PermissionBlocked:
		s.applyLocked(Event{
			Kind:    EventPreconditionFailed,
			Message: "Error: Camera access was denied. Grant permission, then retry",
		})
		s.mu.Unlock()
		return NewError("start capture", KindCapturePermissionDenied, ErrPermissionBlocked)
	}
	gen := s.gen
	s.applyLocked(Event{Kind: EventCaptureRequested})
	s.mu.Unlock()

	h, err := s.capturer.Open(ctx, s.cfg.CaptureConstraints())
	if err != nil {
		kind := captureKind(capture.Classify(err))
		if !s.dispatch(gen, Event{Kind: EventCaptureFailed, ErrorKind: kind, Err: err}) {
			return ErrStopped
		}
		slog.Error("Camera access failed", "kind", kind.String(), "error", err)
		return NewError("start capture", kind, err)
	}

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		h.Close()
		return ErrStopped
	}
	s.handle = h
	s.gates = rtc.Gates(h.Tracks())
	for _, g := range s.gates {
		g.SetPaused(!s.snap.Visible)
	}
	s.applyLocked(Event{Kind: EventCaptureReady, Tracks: h.Info()})
	n := len(s.gates)
	s.mu.Unlock()

	slog.Info("Camera started", "tracks", n)
	return nil
}

// Host creates a connection with every capture track attached, produces the
// offer and a room code.
func (s *Session) Host(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	ctx, end := s.beginOp(ctx)
	defer end()

	gen, tracks, err := s.roomPreconditions("create room", "Please start camera first", ErrCameraRequired)
	if err != nil {
		return err
	}

	pc, err := s.openConnection(gen, tracks)
	if err != nil {
		return s.negotiationFailed(gen, "create room", "Error creating room: ", err)
	}

	offer, err := s.factory.CreateOffer(ctx, pc)
	if err != nil {
		s.dropConnection(gen, pc)
		return s.negotiationFailed(gen, "create room", "Error creating room: ", err)
	}

	text, err := negotiation.Encode(*offer, s.format)
	if err != nil {
		s.dropConnection(gen, pc)
		return s.negotiationFailed(gen, "create room", "Error creating room: ", err)
	}

	roomID, err := s.newRoomID()
	if err != nil {
		s.dropConnection(gen, pc)
		return s.negotiationFailed(gen, "create room", "Error creating room: ", err)
	}

	if !s.dispatch(gen, Event{Kind: EventHosting, RoomID: roomID, Description: text}) {
		return ErrStopped
	}
	slog.Info("Room created", "room", roomID, "offer_bytes", len(text))
	return nil
}

// Join creates a connection with the capture tracks attached and waits for
// the host's offer to be pasted.
func (s *Session) Join(roomCode string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	const msg = "Please start camera and enter room code"
	code, err := room.ParseInput(roomCode)
	if err != nil {
		code = ""
	}
	if code == "" {
		s.mu.Lock()
		s.applyLocked(Event{Kind: EventPreconditionFailed, Message: msg})
		s.mu.Unlock()
		return NewError("join room", KindPrecondition, ErrRoomCodeRequired)
	}

	gen, tracks, err := s.roomPreconditions("join room", msg, ErrCameraRequired)
	if err != nil {
		return err
	}

	if _, err := s.openConnection(gen, tracks); err != nil {
		return s.negotiationFailed(gen, "join room", "", err)
	}

	if !s.dispatch(gen, Event{Kind: EventJoining, RoomID: code}) {
		return ErrStopped
	}
	slog.Info("Joined room", "room", code)
	return nil
}

// ApplyRemote feeds a pasted description into the connection. A host accepts
// an answer; a joiner accepts an offer and gets back the serialized answer.
// On failure the connection's descriptions are left as they were.
func (s *Session) ApplyRemote(ctx context.Context, text string) (string, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	ctx, end := s.beginOp(ctx)
	defer end()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	pc, role, gen := s.pc, s.snap.Role, s.gen
	if pc == nil {
		s.applyLocked(Event{Kind: EventPreconditionFailed, Message: "Error: create or join a room first"})
		s.mu.Unlock()
		return "", NewError("apply remote description", KindPrecondition, ErrNoConnection)
	}
	s.mu.Unlock()

	desc, err := negotiation.Decode(text)
	if err != nil {
		return "", s.negotiationFailed(gen, "apply remote description", "", err)
	}

	var answer string
	switch role {
	case RoleHost:
		if desc.Type != webrtc.SDPTypeAnswer {
			return "", s.negotiationFailed(gen, "apply remote description", "",
				WrapError("apply remote description", KindNegotiation, ErrUnexpectedDescription, "host expects an answer, got "+desc.Type.String()))
		}
		if err := rtc.ApplyAnswer(pc, desc); err != nil {
			return "", s.negotiationFailed(gen, "apply remote description", "", err)
		}

	default:
		if desc.Type != webrtc.SDPTypeOffer {
			return "", s.negotiationFailed(gen, "apply remote description", "",
				WrapError("apply remote description", KindNegotiation, ErrUnexpectedDescription, "joiner expects an offer, got "+desc.Type.String()))
		}
		local, err := s.factory.CreateAnswer(ctx, pc, desc)
		if err != nil {
			return "", s.negotiationFailed(gen, "apply remote description", "", err)
		}
		answer, err = negotiation.Encode(*local, s.format)
		if err != nil {
			return "", s.negotiationFailed(gen, "apply remote description", "", err)
		}
	}

	if !s.dispatch(gen, Event{Kind: EventRemoteApplied, Description: answer}) {
		return "", ErrStopped
	}
	slog.Info("Remote description applied", "role", role.String(), "type", desc.Type.String())
	return answer, nil
}

// Stop releases the capture handle and the connection and resets the state.
// An operation in progress is canceled and returns ErrStopped. It is safe to
// call at any time, repeatedly and concurrently.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	handle, pc, cancel := s.handle, s.pc, s.cancelOp
	s.handle, s.gates, s.pc, s.cancelOp = nil, nil, nil, nil
	s.applyLocked(Event{Kind: EventStopped})
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if pc != nil {
		if err := pc.Close(); err != nil {
			slog.Warn("Closing peer connection failed", "error", err)
		}
	}
	if handle != nil {
		if err := handle.Close(); err != nil {
			slog.Warn("Releasing camera failed", "error", err)
		}
	}
}

// SetVisible holds back outgoing media while hidden and resumes it when
// visible again. Neither the capture nor the connection is torn down.
func (s *Session) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.snap.Visible == visible {
		return
	}
	for _, g := range s.gates {
		g.SetPaused(!visible)
	}
	s.applyLocked(Event{Kind: EventVisibility, Visible: visible})
}

// AcknowledgePermission lifts the block set by a permission denial once the
// user has granted access outside the program.
func (s *Session) AcknowledgePermission() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.snap.PermissionBlocked {
		return
	}
	s.applyLocked(Event{Kind: EventPermissionAcknowledged})
}

// Close stops the session and closes the event channel.
func (s *Session) Close() error {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	return nil
}

// roomPreconditions checks that a room can be created and returns the
// current generation and capture tracks.
func (s *Session) roomPreconditions(op, msg string, cameraErr error) (uint64, []webrtc.TrackLocal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return 0, nil, ErrClosed
	case s.handle == nil:
		s.applyLocked(Event{Kind: EventPreconditionFailed, Message: msg})
		return 0, nil, NewError(op, KindPrecondition, cameraErr)
	case s.pc != nil:
		s.applyLocked(Event{Kind: EventPreconditionFailed, Message: "Error: already in a room. Stop first"})
		return 0, nil, NewError(op, KindPrecondition, ErrAlreadyInRoom)
	}
	return s.gen, rtc.Locals(s.gates), nil
}

// openConnection creates a peer connection for gen, attaches tracks and
// installs it on the session.
func (s *Session) openConnection(gen uint64, tracks []webrtc.TrackLocal) (*webrtc.PeerConnection, error) {
	pc, err := s.factory.NewPeerConnection()
	if err != nil {
		return nil, err
	}
	s.watch(gen, pc)

	if _, err := rtc.AttachTracks(pc, tracks); err != nil {
		pc.Close()
		return nil, err
	}

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		pc.Close()
		return nil, ErrStopped
	}
	s.pc = pc
	s.mu.Unlock()
	return pc, nil
}

// dropConnection closes pc and forgets it if it is still the session's.
func (s *Session) dropConnection(gen uint64, pc *webrtc.PeerConnection) {
	s.mu.Lock()
	if gen == s.gen && s.pc == pc {
		s.pc = nil
	}
	s.mu.Unlock()
	pc.Close()
}

func (s *Session) negotiationFailed(gen uint64, op, prefix string, err error) error {
	if errors.Is(err, ErrStopped) {
		return err
	}
	s.mu.Lock()
	stale := s.closed || gen != s.gen
	s.mu.Unlock()
	if stale {
		return ErrStopped
	}
	slog.Error("Negotiation failed", "op", op, "error", err)

	ev := Event{Kind: EventNegotiationFailed, ErrorKind: KindNegotiation, Err: err}
	if prefix != "" {
		ev.Message = prefix + err.Error()
	}
	if !s.dispatch(gen, ev) {
		return ErrStopped
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(op, KindNegotiation, err)
}

// watch translates pion callbacks into events for gen.
func (s *Session) watch(gen uint64, pc *webrtc.PeerConnection) {
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			slog.Debug("ICE gathering complete")
			return
		}
		// Candidates ride inside the description; they are never sent on their own.
		slog.Debug("ICE candidate", "candidate", c.String())
		s.dispatch(gen, Event{Kind: EventCandidate, Candidate: c.String()})
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Info("Connection state changed", "state", state.String())
		s.dispatch(gen, Event{Kind: EventPhaseChanged, Phase: PhaseFromPeer(state)})
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		go s.receive(gen, pc, track)
	})
}

// receive reports a remote track and drains it, recording when configured.
func (s *Session) receive(gen uint64, pc *webrtc.PeerConnection, track *webrtc.TrackRemote) {
	info := RemoteTrack{
		ID:    track.ID(),
		Kind:  track.Kind().String(),
		Codec: track.Codec().MimeType,
	}

	if track.Kind() == webrtc.RTPCodecTypeVideo {
		if err := pc.WriteRTCP([]rtcp.Packet{
			&rtcp.PictureLossIndication{MediaSSRC: uint32(track.SSRC())},
		}); err != nil {
			slog.Debug("Keyframe request failed", "error", err)
		}
	}

	var w recorder.Writer
	if s.recorder != nil {
		rw, path, err := s.recorder.Open(track.Codec(), info.Kind+"-"+track.ID())
		if err != nil {
			slog.Warn("Not recording remote track", "track", info.ID, "error", err)
		} else {
			w, info.Path = rw, path
		}
	}

	s.dispatch(gen, Event{Kind: EventRemoteTrack, RemoteTrack: info})
	slog.Info("Remote track started", "kind", info.Kind, "codec", info.Codec, "path", info.Path)

	n, err := recorder.Drain(track, w)
	if err != nil {
		slog.Debug("Remote track read stopped", "track", info.ID, "error", err)
	}
	slog.Info("Remote track ended", "kind", info.Kind, "packets", n)
}
