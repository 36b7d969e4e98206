package testutil

import (
	"errors"
	"image/color"
	"strings"
	"sync"

	"github.com/atomicstack/staircase-viewer/internal/render"
	"github.com/atomicstack/staircase-viewer/internal/step"
)

// ErrProgram is returned by a Surface configured to reject programs.
var ErrProgram = errors.New("program rejected")

// Surface records every call made to it, in order, as short verbs such as
// "clear", "indicator" or "bind:staircase.stp".
type Surface struct {
	mu          sync.Mutex
	calls       []string
	programs    int
	FailProgram bool
	Bound       *step.Document
	LastError   string
	Indicators  []render.Indicator
}

func (s *Surface) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (s *Surface) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// Count returns how many recorded calls start with prefix.
func (s *Surface) Count(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (s *Surface) Reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

func (s *Surface) Clear(color.RGBA) { s.record("clear") }

func (s *Surface) InitScene() { s.record("init") }

func (s *Surface) BindDocument(doc *step.Document) {
	s.mu.Lock()
	s.Bound = doc
	s.mu.Unlock()
	name := ""
	if doc != nil {
		name = doc.Name
	}
	s.record("bind:" + name)
}

func (s *Surface) UpdateView() { s.record("update") }

func (s *Surface) FitAll() { s.record("fit") }

func (s *Surface) DrawIndicator(p render.Indicator, _ render.Program) {
	s.mu.Lock()
	s.Indicators = append(s.Indicators, p)
	s.mu.Unlock()
	s.record("indicator")
}

func (s *Surface) DrawError(msg string) {
	s.mu.Lock()
	s.LastError = msg
	s.mu.Unlock()
	s.record("error")
}

func (s *Surface) DrawSplash(render.Program) { s.record("splash") }

func (s *Surface) CreateProgram(_, _ string) (render.Program, error) {
	s.record("program")
	if s.FailProgram {
		return render.Program{}, ErrProgram
	}
	s.mu.Lock()
	s.programs++
	id := s.programs
	s.mu.Unlock()
	return render.Program{ID: id}, nil
}
