package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Spinner shows progress of a run on a terminal. On anything else it
// prints each message on its own line.
type Spinner struct {
	chars   []string
	message string
	out     io.Writer
	animate bool
	active  bool
	mu      sync.Mutex
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a spinner writing to out. Animation is used only when
// out is a terminal and NO_COLOR is not set.
func NewSpinner(out io.Writer, message string) *Spinner {
	return &Spinner{
		chars:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message: message,
		out:     out,
		animate: isTerminal(out) && os.Getenv("NO_COLOR") == "",
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins spinning, showing feedback within 100ms
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	message := s.message
	s.mu.Unlock()

	if !s.animate {
		fmt.Fprintf(s.out, "%s...\n", message)
		close(s.stopped)
		return
	}

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.done:
				// Clear the spinner line
				fmt.Fprintf(s.out, "\r\033[K")
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r\033[K%s %s", s.chars[i], s.message)
				s.mu.Unlock()
				i = (i + 1) % len(s.chars)
			}
		}
	}()
}

// Update changes the spinner message while it's running
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.message == message {
		return
	}
	s.message = message
	if s.active && !s.animate {
		fmt.Fprintf(s.out, "%s...\n", message)
	}
}

// Stop stops the spinner and optionally shows a final message
func (s *Spinner) Stop(finalMessage string) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	close(s.done)
	<-s.stopped

	if finalMessage != "" {
		fmt.Fprintf(s.out, "%s\n", finalMessage)
	}
}

// isTerminal checks if w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
