package formatter

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a braille spinner next to a message while a backend
// call is in flight.
type Spinner struct {
	w       io.Writer
	message string
	once    sync.Once
	stop    chan struct{}
	done    chan struct{}
}

func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins the animation. Stop must be called to clear the line.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.stop:
				fmt.Fprint(s.w, "\r\033[K")
				return
			case <-ticker.C:
				frame := spinnerFrames[i%len(spinnerFrames)]
				fmt.Fprintf(s.w, "\r  %s %s", StylePurple.Render(frame), Dim(s.message))
			}
		}
	}()
}

// Stop ends the animation. It is safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// StartSpinner starts a spinner and returns its stop function.
func StartSpinner(w io.Writer, message string) func() {
	s := NewSpinner(w, message)
	s.Start()
	return s.Stop
}
