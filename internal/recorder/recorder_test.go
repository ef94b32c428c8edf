package recorder

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

type fakeSource struct {
	packets []*rtp.Packet
	err     error
}

func (s *fakeSource) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	if len(s.packets) == 0 {
		if s.err != nil {
			return nil, nil, s.err
		}
		return nil, nil, io.EOF
	}
	p := s.packets[0]
	s.packets = s.packets[1:]
	return p, nil, nil
}

type fakeWriter struct {
	written []uint16
	closed  int
}

func (w *fakeWriter) WriteRTP(p *rtp.Packet) error {
	w.written = append(w.written, p.SequenceNumber)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed++
	return nil
}

func packets(n int) []*rtp.Packet {
	out := make([]*rtp.Packet, n)
	for i := range out {
		out[i] = &rtp.Packet{Header: rtp.Header{SequenceNumber: uint16(i + 1)}}
	}
	return out
}

func TestDrain(t *testing.T) {
	w := &fakeWriter{}
	n, err := Drain(&fakeSource{packets: packets(3)}, w)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Drain() = %d packets, want 3", n)
	}
	if len(w.written) != 3 || w.written[2] != 3 {
		t.Errorf("written = %v, want [1 2 3]", w.written)
	}
	if w.closed != 1 {
		t.Errorf("Close() called %d times, want 1", w.closed)
	}
}

func TestDrain_Discard(t *testing.T) {
	n, err := Drain(&fakeSource{packets: packets(5)}, nil)
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if n != 5 {
		t.Errorf("Drain() = %d packets, want 5", n)
	}
}

func TestDrain_ReadError(t *testing.T) {
	boom := errors.New("boom")
	w := &fakeWriter{}
	n, err := Drain(&fakeSource{packets: packets(1), err: boom}, w)
	if !errors.Is(err, boom) {
		t.Errorf("Drain() error = %v, want %v", err, boom)
	}
	if n != 1 {
		t.Errorf("Drain() = %d packets, want 1", n)
	}
	if w.closed != 1 {
		t.Errorf("Close() called %d times, want 1", w.closed)
	}
}

func TestRecorder_Open(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "rec"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name     string
		codec    webrtc.RTPCodecParameters
		id       string
		wantFile string
		wantErr  error
	}{
		{
			name:     "vp8",
			codec:    webrtc.RTPCodecParameters{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}},
			id:       "video-1",
			wantFile: "video-1.ivf",
		},
		{
			name:     "opus",
			codec:    webrtc.RTPCodecParameters{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: "audio/OPUS", ClockRate: 48000, Channels: 2}},
			id:       "camdrop/audio 1",
			wantFile: "camdrop_audio_1.ogg",
		},
		{
			name:    "h264",
			codec:   webrtc.RTPCodecParameters{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: 90000}},
			id:      "video-2",
			wantErr: ErrUnsupportedCodec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, path, err := r.Open(tt.codec, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			if filepath.Base(path) != tt.wantFile {
				t.Errorf("Open() path = %s, want file %s", path, tt.wantFile)
			}
			if _, err := os.Stat(filepath.Join(r.Dir(), tt.wantFile)); err != nil {
				t.Errorf("Stat() error = %v", err)
			}
		})
	}
}
