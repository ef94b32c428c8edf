package session

import (
	"slices"
	"strings"

	"github.com/BioHazard786/camdrop/internal/capture"
	"github.com/pion/webrtc/v4"
)

// State is the single value describing where a session is
type State int

const (
	StateIdle State = iota
	StateRequestingCapture
	StateCapturing
	StateHosting
	StateJoining
	StateConnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingCapture:
		return "requesting-capture"
	case StateCapturing:
		return "capturing"
	case StateHosting:
		return "hosting-awaiting-answer"
	case StateJoining:
		return "joining-awaiting-offer"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Phase is the transport progress of the peer connection. It moves
// independently of State: a negotiated session may still fail to connect.
type Phase int

const (
	PhaseNew Phase = iota
	PhaseNegotiating
	PhaseConnected
	PhaseDisconnected
	PhaseFailed
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseNew:
		return "new"
	case PhaseNegotiating:
		return "negotiating"
	case PhaseConnected:
		return "connected"
	case PhaseDisconnected:
		return "disconnected"
	case PhaseFailed:
		return "failed"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PhaseFromPeer maps pion's connection state onto a Phase.
func PhaseFromPeer(s webrtc.PeerConnectionState) Phase {
	switch s {
	case webrtc.PeerConnectionStateConnecting:
		return PhaseNegotiating
	case webrtc.PeerConnectionStateConnected:
		return PhaseConnected
	case webrtc.PeerConnectionStateDisconnected:
		return PhaseDisconnected
	case webrtc.PeerConnectionStateFailed:
		return PhaseFailed
	case webrtc.PeerConnectionStateClosed:
		return PhaseClosed
	default:
		return PhaseNew
	}
}

// Role is the side a session took in the negotiation
type Role int

const (
	RoleNone Role = iota
	RoleHost
	RoleJoiner
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleJoiner:
		return "joiner"
	default:
		return "none"
	}
}

// Level grades a status message
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Status is the one-line message shown to the user
type Status struct {
	Level Level
	Text  string
}

// RemoteTrack describes media arriving from the peer
type RemoteTrack struct {
	ID    string
	Kind  string
	Codec string
	// Path is where the track is being recorded, if anywhere
	Path string
}

// Snapshot is a copy of the full session state.
type Snapshot struct {
	State State
	// ErrorKind is meaningful only in StateError
	ErrorKind ErrorKind
	Phase     Phase
	Role      Role

	RoomID string
	// LocalDescription is the serialized offer or answer to hand to the peer
	LocalDescription string
	RemoteApplied    bool

	// PermissionBlocked stays set after a denial until AcknowledgePermission
	PermissionBlocked bool
	Visible           bool

	Tracks       []capture.TrackInfo
	RemoteTracks []RemoteTrack
	Candidates   int

	Status Status
}

// Initial is the state of a fresh session.
func Initial() Snapshot {
	return Snapshot{State: StateIdle, Visible: true}
}

// Streaming reports whether a capture handle is held.
func (s Snapshot) Streaming() bool {
	switch s.State {
	case StateCapturing, StateHosting, StateJoining, StateConnected:
		return true
	}
	return false
}

// InRoom reports whether a peer connection exists.
func (s Snapshot) InRoom() bool {
	return s.Role != RoleNone
}

func (s Snapshot) clone() Snapshot {
	s.Tracks = slices.Clone(s.Tracks)
	s.RemoteTracks = slices.Clone(s.RemoteTracks)
	return s
}

// EventKind names what happened
type EventKind int

const (
	EventCaptureRequested EventKind = iota
	EventCaptureReady
	EventCaptureFailed
	EventHosting
	EventJoining
	EventRemoteApplied
	EventNegotiationFailed
	EventPreconditionFailed
	EventPhaseChanged
	EventCandidate
	EventRemoteTrack
	EventVisibility
	EventPermissionAcknowledged
	EventStopped
)

func (k EventKind) String() string {
	switch k {
	case EventCaptureRequested:
		return "capture-requested"
	case EventCaptureReady:
		return "capture-ready"
	case EventCaptureFailed:
		return "capture-failed"
	case EventHosting:
		return "hosting"
	case EventJoining:
		return "joining"
	case EventRemoteApplied:
		return "remote-applied"
	case EventNegotiationFailed:
		return "negotiation-failed"
	case EventPreconditionFailed:
		return "precondition-failed"
	case EventPhaseChanged:
		return "phase-changed"
	case EventCandidate:
		return "candidate"
	case EventRemoteTrack:
		return "remote-track"
	case EventVisibility:
		return "visibility"
	case EventPermissionAcknowledged:
		return "permission-acknowledged"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event is a user action result or platform callback, already translated.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind

	Err       error
	ErrorKind ErrorKind
	// Message overrides the default status text for failures
	Message string

	Tracks      []capture.TrackInfo
	RoomID      string
	Description string
	Phase       Phase
	Candidate   string
	RemoteTrack RemoteTrack
	Visible     bool
}

// Apply returns the snapshot that results from ev. It never modifies s.
func (s Snapshot) Apply(ev Event) Snapshot {
	next := s.clone()

	switch ev.Kind {
	case EventCaptureRequested:
		next.State = StateRequestingCapture
		next.Status = Status{LevelInfo, "Requesting camera access..."}

	case EventCaptureReady:
		next.State = StateCapturing
		next.ErrorKind = KindNone
		next.PermissionBlocked = false
		next.Tracks = slices.Clone(ev.Tracks)
		next.Status = Status{LevelSuccess, "Camera activated successfully"}

	case EventCaptureFailed:
		next.State = StateError
		next.ErrorKind = ev.ErrorKind
		next.Tracks = nil
		if ev.ErrorKind == KindCapturePermissionDenied {
			next.PermissionBlocked = true
		}
		next.Status = Status{LevelError, captureFailureText(ev)}

	case EventHosting:
		next.State = StateHosting
		next.Role = RoleHost
		next.RoomID = ev.RoomID
		next.LocalDescription = ev.Description
		next.Phase = PhaseNegotiating
		next.Status = Status{LevelSuccess, "Room created! Share this code with your desktop: " + ev.RoomID}

	case EventJoining:
		next.State = StateJoining
		next.Role = RoleJoiner
		next.RoomID = ev.RoomID
		next.Status = Status{LevelInfo, "Connecting to room..."}

	case EventRemoteApplied:
		next.State = StateConnected
		next.RemoteApplied = true
		if ev.Description != "" {
			next.LocalDescription = ev.Description
		}
		if next.Phase == PhaseNew {
			next.Phase = PhaseNegotiating
		}
		if next.Role == RoleJoiner {
			next.Status = Status{LevelSuccess, "Answer created successfully. Send it back to the host"}
		} else {
			next.Status = Status{LevelSuccess, "Answer applied successfully"}
		}

	case EventNegotiationFailed:
		next.Status = Status{LevelError, failureText(ev)}

	case EventPreconditionFailed:
		text := failureText(ev)
		level := LevelInfo
		if strings.HasPrefix(text, "Error") {
			level = LevelError
		}
		next.Status = Status{level, text}

	case EventPhaseChanged:
		if ev.Phase == PhaseNew || !next.InRoom() {
			break
		}
		next.Phase = ev.Phase
		switch ev.Phase {
		case PhaseConnected:
			next.Status = Status{LevelSuccess, "Peer connected successfully"}
		case PhaseDisconnected:
			next.Status = Status{LevelInfo, "Peer disconnected"}
		case PhaseFailed:
			next.Status = Status{LevelError, "Error: connection failed"}
		}

	case EventCandidate:
		next.Candidates++

	case EventRemoteTrack:
		next.RemoteTracks = append(next.RemoteTracks, ev.RemoteTrack)

	case EventVisibility:
		next.Visible = ev.Visible

	case EventPermissionAcknowledged:
		next.PermissionBlocked = false
		if next.State == StateError {
			next.State = StateIdle
			next.ErrorKind = KindNone
		}
		next.Status = Status{LevelInfo, "Camera permission reset. Start the camera again"}

	case EventStopped:
		blocked, visible := next.PermissionBlocked, next.Visible
		next = Initial()
		next.PermissionBlocked = blocked
		next.Visible = visible
		next.Status = Status{LevelInfo, "Streaming stopped"}
	}

	return next
}

func captureFailureText(ev Event) string {
	switch ev.ErrorKind {
	case KindCapturePermissionDenied:
		return "Error: Camera access denied. Allow camera access and try again"
	case KindCaptureDeviceMissing:
		return "Error: No camera found on this device"
	case KindCaptureDeviceBusy:
		return "Error: Camera is already in use by another application"
	default:
		return failureText(ev)
	}
}

func failureText(ev Event) string {
	switch {
	case ev.Message != "":
		return ev.Message
	case ev.Err != nil:
		return "Error: " + ev.Err.Error()
	default:
		return "Error: unknown failure"
	}
}
