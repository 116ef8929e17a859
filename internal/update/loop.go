package update

import "sync/atomic"

// RenderFunc is called with a snapshot after every model transition.
type RenderFunc func(Model)

// Loop owns a Model. A single goroutine applies transitions in arrival
// order; other goroutines interact with it only through channels.
type Loop struct {
	render RenderFunc

	applyCh chan func(Model) Model
	snapCh  chan chan Model

	final   Model
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewLoop starts a loop holding initial. render may be nil.
func NewLoop(initial Model, render RenderFunc) *Loop {
	l := &Loop{
		render:  render,
		applyCh: make(chan func(Model) Model),
		snapCh:  make(chan chan Model),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.run(initial)
	return l
}

func (l *Loop) run(m Model) {
	defer close(l.stopped)

	for {
		select {
		case <-l.stopCh:
			l.final = m
			return

		case fn := <-l.applyCh:
			m = fn(m)
			if l.render != nil {
				l.render(m.Clone())
			}

		case resp := <-l.snapCh:
			resp <- m.Clone()
		}
	}
}

// Apply hands fn to the loop and returns once the loop has taken it. A
// snapshot requested after Apply returns reflects fn. It is a no-op after
// Close.
func (l *Loop) Apply(fn func(Model) Model) {
	if l.closed.Load() {
		return
	}
	select {
	case l.applyCh <- fn:
	case <-l.stopped:
	}
}

// Model returns a deep copy of the current model.
func (l *Loop) Model() Model {
	if l.closed.Load() {
		<-l.stopped
		return l.final.Clone()
	}

	resp := make(chan Model, 1)
	select {
	case l.snapCh <- resp:
	case <-l.stopped:
		return l.final.Clone()
	}
	return <-resp
}

// Close stops the loop. Pending Apply calls return without effect.
func (l *Loop) Close() {
	if l.closed.CompareAndSwap(false, true) {
		close(l.stopCh)
	}
	<-l.stopped
}
