package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// SimpleSpinner animates one status line for command-line steps. It draws on
// stderr so stdout only carries descriptions.
type SimpleSpinner struct {
	out      io.Writer
	frames   []string
	interval time.Duration
	message  string

	mu       sync.Mutex // serializes drawing with Stop
	done     chan struct{}
	stopOnce sync.Once
}

func newSpinner(message string, s spinner.Spinner, interval time.Duration) *SimpleSpinner {
	return &SimpleSpinner{
		out:      os.Stderr,
		frames:   s.Frames,
		interval: interval,
		message:  message,
		done:     make(chan struct{}),
	}
}

// NewSimpleSpinner is for local work such as opening the camera.
func NewSimpleSpinner(message string) *SimpleSpinner {
	return newSpinner(message, spinner.Dot, 80*time.Millisecond)
}

// NewConnectionSpinner is for candidate gathering and answer creation.
func NewConnectionSpinner(message string) *SimpleSpinner {
	return newSpinner(message, spinner.Globe, 180*time.Millisecond)
}

func NewWaitingSpinner(message string) *SimpleSpinner {
	return newSpinner(message, spinner.Points, 100*time.Millisecond)
}

func (s *SimpleSpinner) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for i := 0; s.draw(s.frames[i%len(s.frames)]); i++ {
			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// draw renders one frame unless the spinner was stopped.
func (s *SimpleSpinner) draw(frame string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	fmt.Fprintf(s.out, "\r\033[K%s %s", SpinnerStyle.Render(frame), s.message)
	return true
}

// Stop clears the line. It is safe to call more than once.
func (s *SimpleSpinner) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.done)
		fmt.Fprint(s.out, "\r\033[K")
		s.mu.Unlock()
	})
}

func start(sp *SimpleSpinner) func() {
	sp.Start()
	return sp.Stop
}

// RunSpinner starts a loading spinner and returns a stop function
func RunSpinner(message string) func() { return start(NewSimpleSpinner(message)) }

func RunConnectionSpinner(message string) func() { return start(NewConnectionSpinner(message)) }

func RunWaitingSpinner(message string) func() { return start(NewWaitingSpinner(message)) }
