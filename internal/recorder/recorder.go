// Package recorder writes remote media tracks to disk: VP8 into IVF files and
// Opus into Ogg files.
package recorder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

var ErrUnsupportedCodec = errors.New("codec cannot be recorded")

// Writer consumes RTP packets of a single track
type Writer interface {
	WriteRTP(p *rtp.Packet) error
	Close() error
}

// Source yields RTP packets; *webrtc.TrackRemote satisfies it.
type Source interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

// Recorder creates one file per remote track inside a directory.
type Recorder struct {
	dir string
}

func New(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create record directory: %w", err)
	}
	return &Recorder{dir: dir}, nil
}

func (r *Recorder) Dir() string { return r.dir }

// Open creates the file for a track with the given codec. The name is built
// from id with an extension matching the container.
func (r *Recorder) Open(codec webrtc.RTPCodecParameters, id string) (Writer, string, error) {
	name := sanitize(id)

	switch {
	case strings.EqualFold(codec.MimeType, webrtc.MimeTypeVP8):
		path := filepath.Join(r.dir, name+".ivf")
		w, err := ivfwriter.New(path)
		if err != nil {
			return nil, "", fmt.Errorf("create %s: %w", path, err)
		}
		return w, path, nil

	case strings.EqualFold(codec.MimeType, webrtc.MimeTypeOpus):
		path := filepath.Join(r.dir, name+".ogg")
		channels := codec.Channels
		if channels == 0 {
			channels = 2
		}
		clockRate := codec.ClockRate
		if clockRate == 0 {
			clockRate = 48000
		}
		w, err := oggwriter.New(path, clockRate, channels)
		if err != nil {
			return nil, "", fmt.Errorf("create %s: %w", path, err)
		}
		return w, path, nil

	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedCodec, codec.MimeType)
	}
}

// Drain copies packets from src into w until src ends, then closes w. A nil
// w discards packets, which keeps the remote sender's buffers moving.
func Drain(src Source, w Writer) (packets int, err error) {
	defer func() {
		if w == nil {
			return
		}
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close recording: %w", cerr)
		}
	}()

	for {
		pkt, _, rerr := src.ReadRTP()
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return packets, nil
			}
			return packets, rerr
		}
		if pkt == nil {
			continue
		}
		packets++

		if w == nil {
			continue
		}
		if werr := w.WriteRTP(pkt); werr != nil {
			slog.Debug("Dropping packet that could not be recorded", "error", werr)
		}
	}
}

func sanitize(id string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
	if s == "" {
		return "track"
	}
	return s
}
