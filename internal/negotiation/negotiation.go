// Package negotiation turns connection descriptions into text a person can
// copy between devices, and back.
//
// Three shapes are understood when decoding:
//
//	{"type":"offer","sdp":"v=0..."}       browser RTCSessionDescription JSON
//	eyJ0eXBlIjoib2ZmZXIiLCJzZHAiOi...     base64 of the JSON above
//	cd1:gqF0pW9mZmVyoXPaBW...             compact: base64url(msgpack)
//
// Encoding produces either the JSON or the compact shape.
package negotiation

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the text shape produced by Encode
type Format int

const (
	FormatJSON Format = iota
	FormatCompact
)

const compactPrefix = "cd1:"

var (
	ErrEmpty              = errors.New("description is empty")
	ErrMalformed          = errors.New("description is not valid JSON or a known encoding")
	ErrInvalidDescription = errors.New("description is missing a valid type or sdp")
)

type jsonDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type compactDescription struct {
	Type string `msgpack:"t"`
	SDP  string `msgpack:"s"`
}

// Encode serializes a description for display.
func Encode(desc webrtc.SessionDescription, format Format) (string, error) {
	if err := validate(desc); err != nil {
		return "", err
	}

	switch format {
	case FormatCompact:
		b, err := msgpack.Marshal(compactDescription{Type: desc.Type.String(), SDP: desc.SDP})
		if err != nil {
			return "", fmt.Errorf("encode description: %w", err)
		}
		return compactPrefix + base64.RawURLEncoding.EncodeToString(b), nil
	default:
		b, err := json.Marshal(jsonDescription{Type: desc.Type.String(), SDP: desc.SDP})
		if err != nil {
			return "", fmt.Errorf("encode description: %w", err)
		}
		return string(b), nil
	}
}

// Decode parses pasted text into a description.
func Decode(text string) (webrtc.SessionDescription, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return webrtc.SessionDescription{}, ErrEmpty
	}

	var raw jsonDescription
	switch {
	case strings.HasPrefix(text, compactPrefix):
		b, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(strings.TrimPrefix(text, compactPrefix)))
		if err != nil {
			return webrtc.SessionDescription{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		var c compactDescription
		if err := msgpack.Unmarshal(b, &c); err != nil {
			return webrtc.SessionDescription{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		raw = jsonDescription(c)

	case strings.HasPrefix(text, "{"):
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return webrtc.SessionDescription{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

	default:
		b, err := base64.StdEncoding.DecodeString(stripWhitespace(text))
		if err != nil || !bytes.HasPrefix(bytes.TrimSpace(b), []byte("{")) {
			return webrtc.SessionDescription{}, ErrMalformed
		}
		if err := json.Unmarshal(b, &raw); err != nil {
			return webrtc.SessionDescription{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	desc := webrtc.SessionDescription{Type: webrtc.NewSDPType(raw.Type), SDP: raw.SDP}
	if err := validate(desc); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return desc, nil
}

func validate(desc webrtc.SessionDescription) error {
	switch desc.Type {
	case webrtc.SDPTypeOffer, webrtc.SDPTypeAnswer, webrtc.SDPTypePranswer:
	default:
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidDescription, desc.Type.String())
	}
	if strings.TrimSpace(desc.SDP) == "" {
		return fmt.Errorf("%w: empty sdp", ErrInvalidDescription)
	}
	return nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
}
