package testutil

import "sync"

// Display collects published document text.
type Display struct {
	mu       sync.Mutex
	contents []string
}

func (d *Display) PublishContent(content string) {
	d.mu.Lock()
	d.contents = append(d.contents, content)
	d.mu.Unlock()
}

// Contents returns everything published so far.
func (d *Display) Contents() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.contents))
	copy(out, d.contents)
	return out
}
