// Package rtc builds peer connections and runs the offer/answer steps of a
// negotiation whose descriptions travel out of band.
package rtc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BioHazard786/camdrop/internal/capture"
	"github.com/BioHazard786/camdrop/internal/config"
	"github.com/BioHazard786/camdrop/internal/logging"
	pion "github.com/pion/webrtc/v4"
)

// Factory creates peer connections that share one media engine and setting engine.
type Factory struct {
	api           *pion.API
	iceServers    []pion.ICEServer
	policy        pion.ICETransportPolicy
	gatherTimeout time.Duration
}

// Option tweaks a Factory
type Option func(*pion.SettingEngine)

// WithLoopback makes loopback addresses usable as host candidates, which lets
// two peers in one process connect without any network.
func WithLoopback() Option {
	return func(s *pion.SettingEngine) {
		s.SetIncludeLoopbackCandidate(true)
	}
}

// NewFactory registers codecs and ICE settings. When registrar is nil the
// default pion codecs are used.
func NewFactory(cfg *config.Config, registrar capture.CodecRegistrar, opts ...Option) (*Factory, error) {
	m := &pion.MediaEngine{}
	if registrar != nil {
		if err := registrar.RegisterCodecs(m); err != nil {
			return nil, fmt.Errorf("register capture codecs: %w", err)
		}
	} else if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register default codecs: %w", err)
	}

	s := pion.SettingEngine{}
	s.LoggerFactory = logging.PionFactory{}
	for _, opt := range opts {
		opt(&s)
	}

	iceServers := cfg.ICEServers()

	policy := pion.ICETransportPolicyAll
	if cfg.GetTURNServers() != nil && (cfg.ForceRelay || ShouldForceRelay()) {
		slog.Info("Forcing relay-only ICE", "explicit", cfg.ForceRelay)
		policy = pion.ICETransportPolicyRelay
	}

	gatherTimeout := cfg.GatherTimeout
	if gatherTimeout <= 0 {
		gatherTimeout = config.DefaultGatherTimeout
	}

	return &Factory{
		api:           pion.NewAPI(pion.WithMediaEngine(m), pion.WithSettingEngine(s)),
		iceServers:    iceServers,
		policy:        policy,
		gatherTimeout: gatherTimeout,
	}, nil
}

func (f *Factory) NewPeerConnection() (*pion.PeerConnection, error) {
	pc, err := f.api.NewPeerConnection(pion.Configuration{
		ICEServers:         f.iceServers,
		ICETransportPolicy: f.policy,
	})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}
	return pc, nil
}

// AttachTracks adds every track to pc and returns the senders in track order.
func AttachTracks(pc *pion.PeerConnection, tracks []pion.TrackLocal) ([]*pion.RTPSender, error) {
	senders := make([]*pion.RTPSender, 0, len(tracks))
	for _, t := range tracks {
		sender, err := pc.AddTrack(t)
		if err != nil {
			return nil, fmt.Errorf("add %s track: %w", t.Kind(), err)
		}
		go drainRTCP(sender)
		senders = append(senders, sender)
	}
	return senders, nil
}

// drainRTCP reads RTCP so interceptors such as NACK keep working.
func drainRTCP(sender *pion.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}

// CreateOffer sets a new offer as the local description and returns it once
// candidate gathering finishes.
func (f *Factory) CreateOffer(ctx context.Context, pc *pion.PeerConnection) (*pion.SessionDescription, error) {
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	return f.setLocal(ctx, pc, offer)
}

// CreateAnswer applies a remote offer and returns the local answer once
// candidate gathering finishes.
func (f *Factory) CreateAnswer(ctx context.Context, pc *pion.PeerConnection, offer pion.SessionDescription) (*pion.SessionDescription, error) {
	if offer.Type != pion.SDPTypeOffer {
		return nil, fmt.Errorf("create answer: remote description is %s, not offer", offer.Type)
	}
	if err := pc.SetRemoteDescription(offer); err != nil {
		return nil, fmt.Errorf("set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	return f.setLocal(ctx, pc, answer)
}

// ApplyAnswer completes a negotiation started by CreateOffer.
func ApplyAnswer(pc *pion.PeerConnection, answer pion.SessionDescription) error {
	if answer.Type != pion.SDPTypeAnswer {
		return fmt.Errorf("apply answer: remote description is %s, not answer", answer.Type)
	}
	if err := pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

func (f *Factory) setLocal(ctx context.Context, pc *pion.PeerConnection, desc pion.SessionDescription) (*pion.SessionDescription, error) {
	gatherComplete := pion.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(desc); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}

	timer := time.NewTimer(f.gatherTimeout)
	defer timer.Stop()

	select {
	case <-gatherComplete:
	case <-timer.C:
		slog.Warn("ICE gathering timed out, using candidates found so far", "timeout", f.gatherTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("gather candidates: %w", ctx.Err())
	}

	local := pc.LocalDescription()
	if local == nil {
		return nil, fmt.Errorf("gather candidates: peer connection closed")
	}
	return local, nil
}
