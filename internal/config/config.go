package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BioHazard786/camdrop/internal/capture"
	"github.com/pion/webrtc/v4"
)

// Default configuration values
const (
	DefaultGatherTimeout = 5 * time.Second
	DefaultLogFileName   = "camdrop.log"

	DefaultWidth        = 1280
	DefaultMaxWidth     = 1920
	DefaultHeight       = 720
	DefaultMaxHeight    = 1080
	DefaultFrameRate    = 30
	DefaultMaxFrameRate = 60
)

// DefaultSTUNServers are the public relay-discovery endpoints used when
// nothing else is configured.
var DefaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// Source selects where captured media comes from
type Source string

const (
	SourceCamera Source = "camera"
	SourceTest   Source = "test"
)

// Config holds application configuration
type Config struct {
	// ICE servers for WebRTC
	STUNServers []string
	TURNServer  string
	TURNUser    string
	TURNPass    string
	ForceRelay  bool

	// GatherTimeout bounds how long offer/answer creation waits for ICE gathering
	GatherTimeout time.Duration

	// Capture settings
	Source     Source
	Width      int
	Height     int
	FrameRate  float32
	FacingMode capture.FacingMode
	Audio      bool
	DeviceID   string

	// RecordDir receives remote tracks when set
	RecordDir string

	// Compact switches printed descriptions to the compact encoding
	Compact bool

	LogFile string
}

// Options for loading config with CLI flag overrides
type Options struct {
	STUNServers   []string
	TURNServer    string
	TURNUser      string
	TURNPass      string
	ForceRelay    bool
	GatherTimeout time.Duration

	Source     string
	Width      int
	Height     int
	FrameRate  float32
	FacingMode string
	Audio      bool
	DeviceID   string

	RecordDir string
	Compact   bool
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	stunServers := opts.STUNServers
	if len(stunServers) == 0 {
		stunServers = splitList(os.Getenv("STUN_SERVERS"))
	}
	if len(stunServers) == 0 {
		stunServers = append([]string(nil), DefaultSTUNServers...)
	}

	turnServer := firstNonEmpty(opts.TURNServer, os.Getenv("TURN_SERVER"))
	turnUser := firstNonEmpty(opts.TURNUser, os.Getenv("TURN_USERNAME"))
	turnPass := firstNonEmpty(opts.TURNPass, os.Getenv("TURN_PASSWORD"))

	if opts.ForceRelay && turnServer == "" {
		return nil, fmt.Errorf("cannot force relay mode without TURN server configured")
	}

	gatherTimeout := opts.GatherTimeout
	if gatherTimeout <= 0 {
		gatherTimeout = DefaultGatherTimeout
	}

	source := Source(firstNonEmpty(opts.Source, string(SourceCamera)))
	if source != SourceCamera && source != SourceTest {
		return nil, fmt.Errorf("unknown capture source %q (want %q or %q)", source, SourceCamera, SourceTest)
	}

	facing, err := capture.ParseFacingMode(firstNonEmpty(opts.FacingMode, string(capture.FacingUser)))
	if err != nil {
		return nil, err
	}

	if opts.Width < 0 || opts.Height < 0 || opts.FrameRate < 0 {
		return nil, fmt.Errorf("capture dimensions and frame rate must not be negative")
	}

	logFile := os.Getenv("CAMDROP_LOG_FILE")
	if logFile == "" {
		logFile = filepath.Join(os.TempDir(), DefaultLogFileName)
	}

	return &Config{
		STUNServers:   stunServers,
		TURNServer:    turnServer,
		TURNUser:      turnUser,
		TURNPass:      turnPass,
		ForceRelay:    opts.ForceRelay,
		GatherTimeout: gatherTimeout,
		Source:        source,
		Width:         opts.Width,
		Height:        opts.Height,
		FrameRate:     opts.FrameRate,
		FacingMode:    facing,
		Audio:         opts.Audio,
		DeviceID:      opts.DeviceID,
		RecordDir:     firstNonEmpty(opts.RecordDir, os.Getenv("CAMDROP_RECORD_DIR")),
		Compact:       opts.Compact,
		LogFile:       logFile,
	}, nil
}

// CaptureConstraints builds the capture request. Explicit sizes become the
// ideal value; the maximum never drops below it.
func (c *Config) CaptureConstraints() capture.Constraints {
	width := orDefault(c.Width, DefaultWidth)
	height := orDefault(c.Height, DefaultHeight)
	fps := c.FrameRate
	if fps == 0 {
		fps = DefaultFrameRate
	}

	return capture.Constraints{
		Width:      capture.IntRange{Ideal: width, Max: max(width, DefaultMaxWidth)},
		Height:     capture.IntRange{Ideal: height, Max: max(height, DefaultMaxHeight)},
		FrameRate:  capture.FloatRange{Ideal: fps, Max: max(fps, DefaultMaxFrameRate)},
		FacingMode: c.FacingMode,
		Audio:      c.Audio,
		DeviceID:   c.DeviceID,
	}
}

// ICEServers returns the STUN servers and, when configured, the TURN server
// with its credentials. An empty STUN list and no TURN yields no servers,
// which limits gathering to host candidates.
func (c *Config) ICEServers() []webrtc.ICEServer {
	var servers []webrtc.ICEServer
	if stun := c.GetSTUNServers(); len(stun) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: stun})
	}

	if turnServers := c.GetTURNServers(); turnServers != nil {
		username, password := c.GetTURNCredentials()
		servers = append(servers, webrtc.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}
	return servers
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	return c.STUNServers
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	host := strings.TrimPrefix(strings.TrimPrefix(c.TURNServer, "turn:"), "turns:")
	return []string{
		fmt.Sprintf("turn:%s:3478?transport=udp", host),
		fmt.Sprintf("turn:%s:3478?transport=tcp", host),
		fmt.Sprintf("turns:%s:5349?transport=tcp", host),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
