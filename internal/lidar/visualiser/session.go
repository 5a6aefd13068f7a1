package visualiser

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"
)

// DefaultPower compresses range values before colouring so that a few far
// returns do not wash out the image.
const DefaultPower = 1.0 / 8.0

// Session is an explicit render context.
type Session struct {
	dir     string
	width   vg.Length
	height  vg.Length
	palette palette.Palette
	power   float64

	mu     sync.Mutex
	frames int
	cursor int
}

// Option configures a Session.
type Option func(*Session)

// WithCanvas sets the PNG canvas size.
func WithCanvas(width, height vg.Length) Option {
	return func(s *Session) {
		s.width, s.height = width, height
	}
}

// WithPalette sets the heat map palette.
func WithPalette(p palette.Palette) Option {
	return func(s *Session) { s.palette = p }
}

// WithPower sets the non-linearity applied before normalisation.
func WithPower(p float64) Option {
	return func(s *Session) {
		if p > 0 {
			s.power = p
		}
	}
}

// NewSession creates dir if needed and returns a session writing into it.
func NewSession(dir string, opts ...Option) (*Session, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	s := &Session{
		dir:     dir,
		width:   40 * vg.Centimeter,
		height:  4 * vg.Centimeter,
		palette: palette.Heat(64, 1),
		power:   DefaultPower,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the output directory.
func (s *Session) Dir() string { return s.dir }

// SetFrameCount sets the number of frames the cursor steps over and resets
// the cursor to the first frame.
func (s *Session) SetFrameCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = max(n, 0)
	s.cursor = 0
}

// Step moves the cursor by n frames, wrapping in both directions, and
// returns the new position. With no frames the cursor stays at 0.
func (s *Session) Step(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frames == 0 {
		return 0
	}
	s.cursor = ((s.cursor+n)%s.frames + s.frames) % s.frames
	return s.cursor
}

// Cursor returns the current frame position.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Session) path(name, ext string) string {
	return filepath.Join(s.dir, name+ext)
}
