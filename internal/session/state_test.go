package session

import (
	"errors"
	"testing"

	"github.com/BioHazard786/camdrop/internal/capture"
	"github.com/pion/webrtc/v4"
)

func applyAll(s Snapshot, events ...Event) Snapshot {
	for _, ev := range events {
		s = s.Apply(ev)
	}
	return s
}

func TestSnapshot_Apply(t *testing.T) {
	ready := Event{Kind: EventCaptureReady, Tracks: []capture.TrackInfo{{ID: "v", Kind: "video"}}}
	hosting := Event{Kind: EventHosting, RoomID: "AB12CD", Description: "offer"}

	tests := []struct {
		name       string
		events     []Event
		wantState  State
		wantPhase  Phase
		wantRole   Role
		wantStatus Status
	}{
		{
			name:       "capture granted",
			events:     []Event{{Kind: EventCaptureRequested}, ready},
			wantState:  StateCapturing,
			wantStatus: Status{LevelSuccess, "Camera activated successfully"},
		},
		{
			name:       "capture busy",
			events:     []Event{{Kind: EventCaptureRequested}, {Kind: EventCaptureFailed, ErrorKind: KindCaptureDeviceBusy}},
			wantState:  StateError,
			wantStatus: Status{LevelError, "Error: Camera is already in use by another application"},
		},
		{
			name:       "capture other failure",
			events:     []Event{{Kind: EventCaptureFailed, ErrorKind: KindCaptureOther, Err: errors.New("driver crashed")}},
			wantState:  StateError,
			wantStatus: Status{LevelError, "Error: driver crashed"},
		},
		{
			name:       "host",
			events:     []Event{ready, hosting},
			wantState:  StateHosting,
			wantPhase:  PhaseNegotiating,
			wantRole:   RoleHost,
			wantStatus: Status{LevelSuccess, "Room created! Share this code with your desktop: AB12CD"},
		},
		{
			name:       "join",
			events:     []Event{ready, {Kind: EventJoining, RoomID: "AB12CD"}},
			wantState:  StateJoining,
			wantRole:   RoleJoiner,
			wantStatus: Status{LevelInfo, "Connecting to room..."},
		},
		{
			name:       "joiner answers",
			events:     []Event{ready, {Kind: EventJoining, RoomID: "AB12CD"}, {Kind: EventRemoteApplied, Description: "answer"}},
			wantState:  StateConnected,
			wantPhase:  PhaseNegotiating,
			wantRole:   RoleJoiner,
			wantStatus: Status{LevelSuccess, "Answer created successfully. Send it back to the host"},
		},
		{
			name:       "negotiation failure keeps state",
			events:     []Event{ready, hosting, {Kind: EventNegotiationFailed, Err: errors.New("bad sdp")}},
			wantState:  StateHosting,
			wantPhase:  PhaseNegotiating,
			wantRole:   RoleHost,
			wantStatus: Status{LevelError, "Error: bad sdp"},
		},
		{
			name:       "precondition without prefix is informational",
			events:     []Event{{Kind: EventPreconditionFailed, Message: "Please start camera first"}},
			wantState:  StateIdle,
			wantStatus: Status{LevelInfo, "Please start camera first"},
		},
		{
			name:       "peer connected",
			events:     []Event{ready, hosting, {Kind: EventRemoteApplied}, {Kind: EventPhaseChanged, Phase: PhaseConnected}},
			wantState:  StateConnected,
			wantPhase:  PhaseConnected,
			wantRole:   RoleHost,
			wantStatus: Status{LevelSuccess, "Peer connected successfully"},
		},
		{
			name:       "phase never regresses to new",
			events:     []Event{ready, hosting, {Kind: EventPhaseChanged, Phase: PhaseNew}},
			wantState:  StateHosting,
			wantPhase:  PhaseNegotiating,
			wantRole:   RoleHost,
			wantStatus: Status{LevelSuccess, "Room created! Share this code with your desktop: AB12CD"},
		},
		{
			name:       "phase ignored outside a room",
			events:     []Event{ready, {Kind: EventPhaseChanged, Phase: PhaseFailed}},
			wantState:  StateCapturing,
			wantStatus: Status{LevelSuccess, "Camera activated successfully"},
		},
		{
			name:       "stop resets",
			events:     []Event{ready, hosting, {Kind: EventRemoteApplied}, {Kind: EventStopped}},
			wantState:  StateIdle,
			wantStatus: Status{LevelInfo, "Streaming stopped"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyAll(Initial(), tt.events...)
			if got.State != tt.wantState {
				t.Errorf("State = %v, want %v", got.State, tt.wantState)
			}
			if got.Phase != tt.wantPhase {
				t.Errorf("Phase = %v, want %v", got.Phase, tt.wantPhase)
			}
			if got.Role != tt.wantRole {
				t.Errorf("Role = %v, want %v", got.Role, tt.wantRole)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %+v, want %+v", got.Status, tt.wantStatus)
			}
		})
	}
}

func TestSnapshot_ApplyPermission(t *testing.T) {
	s := applyAll(Initial(),
		Event{Kind: EventCaptureRequested},
		Event{Kind: EventCaptureFailed, ErrorKind: KindCapturePermissionDenied},
	)
	if !s.PermissionBlocked {
		t.Fatal("PermissionBlocked = false after denial, want true")
	}
	if s.Streaming() {
		t.Error("Streaming() = true after denial, want false")
	}
	if s.ErrorKind != KindCapturePermissionDenied {
		t.Errorf("ErrorKind = %v, want %v", s.ErrorKind, KindCapturePermissionDenied)
	}

	stopped := s.Apply(Event{Kind: EventStopped})
	if !stopped.PermissionBlocked {
		t.Error("PermissionBlocked cleared by stop, want it kept until acknowledged")
	}

	acked := stopped.Apply(Event{Kind: EventPermissionAcknowledged})
	if acked.PermissionBlocked {
		t.Error("PermissionBlocked = true after acknowledge, want false")
	}
	if acked.State != StateIdle {
		t.Errorf("State = %v after acknowledge, want idle", acked.State)
	}
}

func TestSnapshot_ApplyDoesNotAlias(t *testing.T) {
	base := Initial().Apply(Event{Kind: EventRemoteTrack, RemoteTrack: RemoteTrack{ID: "a"}})
	next := base.Apply(Event{Kind: EventRemoteTrack, RemoteTrack: RemoteTrack{ID: "b"}})

	if len(base.RemoteTracks) != 1 {
		t.Errorf("len(base.RemoteTracks) = %d, want 1", len(base.RemoteTracks))
	}
	if len(next.RemoteTracks) != 2 {
		t.Errorf("len(next.RemoteTracks) = %d, want 2", len(next.RemoteTracks))
	}
}

func TestSnapshot_Visibility(t *testing.T) {
	s := Initial()
	if !s.Visible {
		t.Fatal("Initial().Visible = false, want true")
	}
	hidden := s.Apply(Event{Kind: EventVisibility, Visible: false})
	if hidden.Visible {
		t.Error("Visible = true after hide")
	}
	if got := hidden.Apply(Event{Kind: EventStopped}); got.Visible {
		t.Error("stop changed visibility, want it kept")
	}
}

func TestPhaseFromPeer(t *testing.T) {
	tests := []struct {
		in   webrtc.PeerConnectionState
		want Phase
	}{
		{webrtc.PeerConnectionStateNew, PhaseNew},
		{webrtc.PeerConnectionStateConnecting, PhaseNegotiating},
		{webrtc.PeerConnectionStateConnected, PhaseConnected},
		{webrtc.PeerConnectionStateDisconnected, PhaseDisconnected},
		{webrtc.PeerConnectionStateFailed, PhaseFailed},
		{webrtc.PeerConnectionStateClosed, PhaseClosed},
	}

	for _, tt := range tests {
		if got := PhaseFromPeer(tt.in); got != tt.want {
			t.Errorf("PhaseFromPeer(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStateStrings(t *testing.T) {
	want := []string{"idle", "requesting-capture", "capturing", "hosting-awaiting-answer", "joining-awaiting-offer", "connected", "error"}
	for i, w := range want {
		if got := State(i).String(); got != w {
			t.Errorf("State(%d).String() = %q, want %q", i, got, w)
		}
	}
}

func TestKindOf(t *testing.T) {
	err := WrapError("apply remote description", KindNegotiation, ErrUnexpectedDescription, "host expects an answer")
	if got := KindOf(err); got != KindNegotiation {
		t.Errorf("KindOf() = %v, want %v", got, KindNegotiation)
	}
	if !errors.Is(err, ErrUnexpectedDescription) {
		t.Error("errors.Is(err, ErrUnexpectedDescription) = false")
	}
	if got := KindOf(errors.New("plain")); got != KindNone {
		t.Errorf("KindOf(plain) = %v, want %v", got, KindNone)
	}
	if got, want := err.Error(), "apply remote description: unexpected description type (host expects an answer)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
