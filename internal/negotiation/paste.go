package negotiation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pion/webrtc/v4"
	"github.com/skip2/go-qrcode"
)

// ErrTooLarge is returned when text does not fit in a QR code
var ErrTooLarge = errors.New("description too large for a QR code")

const maxPasteLine = 1 << 20

// ReadPasted reads from r until the accumulated text decodes, a blank line
// follows some input, or r is exhausted. Pasted JSON often spans several
// lines, so a single line read is not enough.
func ReadPasted(r io.Reader) (webrtc.SessionDescription, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxPasteLine)

	var b strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if b.Len() > 0 {
				break
			}
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')

		if desc, err := Decode(b.String()); err == nil {
			return desc, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("read description: %w", err)
	}

	return Decode(b.String())
}

// QRCode renders text as a QR code made of half-block characters for the terminal.
func QRCode(text string) (string, error) {
	q, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTooLarge, err)
	}
	return q.ToSmallString(false), nil
}
