package negotiation

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/pion/webrtc/v4"
)

const sampleSDP = "v=0\r\no=- 4611731400430051336 2 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\nm=video 9 UDP/TLS/RTP/SAVPF 96\r\nc=IN IP4 0.0.0.0\r\na=rtpmap:96 VP8/90000\r\n"

func TestEncode_JSON(t *testing.T) {
	got, err := Encode(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0\r\n"}, FormatJSON)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := `{"type":"offer","sdp":"v=0\r\n"}`
	if got != want {
		t.Errorf("Encode() = %s, want %s", got, want)
	}
}

func TestEncode_Compact(t *testing.T) {
	desc := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sampleSDP}

	got, err := Encode(desc, FormatCompact)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.HasPrefix(got, compactPrefix) {
		t.Fatalf("Encode() = %q, want prefix %q", got, compactPrefix)
	}
	if strings.ContainsAny(got, "\r\n+/=") {
		t.Errorf("Encode() = %q, want URL-safe single line", got)
	}

	back, err := Decode(got)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if back.Type != desc.Type || back.SDP != desc.SDP {
		t.Errorf("Decode(Encode()) = %+v, want %+v", back, desc)
	}
}

func TestEncode_Invalid(t *testing.T) {
	tests := []webrtc.SessionDescription{
		{Type: webrtc.SDPTypeOffer},
		{Type: webrtc.SDPTypeRollback, SDP: sampleSDP},
		{SDP: sampleSDP},
	}

	for _, desc := range tests {
		if _, err := Encode(desc, FormatJSON); !errors.Is(err, ErrInvalidDescription) {
			t.Errorf("Encode(%+v) error = %v, want %v", desc, err, ErrInvalidDescription)
		}
	}
}

func TestDecode(t *testing.T) {
	browserJSON := `{"type":"offer","sdp":"v=0\r\no=- 1 2 IN IP4 127.0.0.1\r\n"}`
	pionStyle := base64.StdEncoding.EncodeToString([]byte(browserJSON))

	tests := []struct {
		name     string
		in       string
		wantType webrtc.SDPType
		wantErr  error
	}{
		{"browser json", browserJSON, webrtc.SDPTypeOffer, nil},
		{"surrounding whitespace", "\n  " + browserJSON + "  \n", webrtc.SDPTypeOffer, nil},
		{"pretty printed", "{\n  \"type\": \"answer\",\n  \"sdp\": \"v=0\\r\\n\"\n}", webrtc.SDPTypeAnswer, nil},
		{"base64 json", pionStyle, webrtc.SDPTypeOffer, nil},
		{"base64 json wrapped", pionStyle[:20] + "\n" + pionStyle[20:], webrtc.SDPTypeOffer, nil},
		{"empty", "   ", 0, ErrEmpty},
		{"garbage", "hello there", 0, ErrMalformed},
		{"truncated json", `{"type":"offer","sdp":"v=0`, 0, ErrMalformed},
		{"bad compact", "cd1:!!!", 0, ErrMalformed},
		{"unknown type", `{"type":"greeting","sdp":"v=0"}`, 0, ErrInvalidDescription},
		{"missing sdp", `{"type":"offer"}`, 0, ErrInvalidDescription},
		{"missing type", `{"sdp":"v=0"}`, 0, ErrInvalidDescription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.Type != tt.wantType {
				t.Errorf("Decode().Type = %v, want %v", got.Type, tt.wantType)
			}
		})
	}
}

func TestReadPasted(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantType webrtc.SDPType
		wantErr  error
	}{
		{
			name:     "single line",
			in:       `{"type":"answer","sdp":"v=0\r\n"}` + "\n" + "ignored trailing line\n",
			wantType: webrtc.SDPTypeAnswer,
		},
		{
			name:     "multi line without trailing newline",
			in:       "\n\n{\n\"type\": \"offer\",\n\"sdp\": \"v=0\\r\\n\"\n}",
			wantType: webrtc.SDPTypeOffer,
		},
		{
			name:    "blank line ends input",
			in:      "{\"type\":\n\n\"offer\"}\n",
			wantErr: ErrMalformed,
		},
		{
			name:    "nothing pasted",
			in:      "\n\n",
			wantErr: ErrEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadPasted(strings.NewReader(tt.in))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ReadPasted() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadPasted() error = %v", err)
			}
			if got.Type != tt.wantType {
				t.Errorf("ReadPasted().Type = %v, want %v", got.Type, tt.wantType)
			}
		})
	}
}

func TestQRCode(t *testing.T) {
	code, err := QRCode("cd1:abc")
	if err != nil {
		t.Fatalf("QRCode() error = %v", err)
	}
	if strings.Count(code, "\n") < 10 {
		t.Errorf("QRCode() returned %d lines, want a full code", strings.Count(code, "\n"))
	}

	if _, err := QRCode(strings.Repeat("x", 8000)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("QRCode(8000 bytes) error = %v, want %v", err, ErrTooLarge)
	}
}
