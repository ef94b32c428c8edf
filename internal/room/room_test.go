package room

import (
	"testing"
	"unicode/utf8"
)

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("NewID() error = %v", err)
		}
		if !Valid(id) {
			t.Fatalf("NewID() = %q, not a 6-character uppercase alphanumeric code", id)
		}
		seen[id] = true
	}
	// 36^6 codes; 200 draws colliding into a handful would mean a broken source.
	if len(seen) < 190 {
		t.Errorf("NewID() produced only %d distinct codes in 200 draws", len(seen))
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"AB12CD", true},
		{"000000", true},
		{"ab12cd", false},
		{"AB12C", false},
		{"AB12CDE", false},
		{"AB-2CD", false},
	}

	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ab12cd", "AB12CD"},
		{"  xy9 ", "XY9"},
		{"abcdefgh", "ABCDEF"},
		{"", ""},
		{"äöü12cdx", "ÄÖÜ12C"},
		{"日本語のルーム名", "日本語のルー"},
	}

	for _, tt := range tests {
		got := Normalize(tt.in)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("Normalize(%q) = %q, not valid UTF-8", tt.in, got)
		}
	}
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"k3x9qa", "K3X9QA", false},
		{"https://example.com/r/ab12cd", "AB12CD", false},
		{"https://example.com/r/ab12cd/", "AB12CD", false},
		{"example.com/r/zz99zz", "ZZ99ZZ", false},
		{"https://example.com/join?room=qw12er", "QW12ER", false},
		{"https://example.com/?room=qw12er&x=1", "QW12ER", false},
		{"https://example.com/#ty34ui", "TY34UI", false},
		{"https://example.com/app#/ty34ui", "TY34UI", false},
		{"https://example.com/join?room=", "", true},
		{"https://example.com/rooms", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		got, err := ParseInput(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseInput(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
