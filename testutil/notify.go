package testutil

import (
	"context"
	"sync"

	"github.com/junaidrashid-git/yar-marketplace/notify"
)

// Recorder keeps every notification it receives.
type Recorder struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *Recorder) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *Recorder) Sent() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.sent...)
}

// Kinds lists the notification kinds in delivery order.
func (r *Recorder) Kinds() []string {
	var out []string
	for _, n := range r.Sent() {
		out = append(out, n.Kind)
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// Invalidations counts cache invalidations.
type Invalidations struct {
	mu sync.Mutex
	n  int
}

func (i *Invalidations) Invalidate(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.n++
	return nil
}

func (i *Invalidations) Count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.n
}
