package update

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/starford/strength/internal/client"
	"github.com/starford/strength/internal/models"
)

// Transport is the subset of *client.Transport the engine needs.
type Transport interface {
	Get(ctx context.Context, cred client.Credential, section models.Section, cardName string) (models.Card, error)
	List(ctx context.Context, cred client.Credential, section models.Section) ([]models.Card, error)
	Patch(ctx context.Context, cred client.Credential, section models.Section, cardName string, patch models.CardPatch) (models.Card, error)
}

// ApplyFunc hands a model transition to the model's owner. Implementations
// must run transitions one at a time.
type ApplyFunc func(func(Model) Model)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for failures that have no caller callback.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithContext sets the context every transport call runs under.
// Cancelling it fails in-flight calls; it does not discard their results.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) {
		e.ctx = ctx
	}
}

// WithSelectFencing makes results that write SelectedCard (card/select and
// card/update) apply only when no newer such request was issued after them.
// Without it the last response to arrive wins.
func WithSelectFencing() Option {
	return func(e *Engine) {
		e.fence = true
	}
}

// Engine dispatches messages. Each dispatch runs its transport call on its
// own goroutine and reports back exclusively through the apply function.
type Engine struct {
	transport Transport
	logger    *slog.Logger
	ctx       context.Context
	fence     bool

	selection atomic.Uint64
	inflight  sync.WaitGroup
}

// NewEngine creates an engine over transport.
func NewEngine(transport Transport, opts ...Option) *Engine {
	e := &Engine{
		transport: transport,
		logger:    slog.Default(),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dispatch starts handling msg and returns immediately. Transport failures
// never escape: they become model updates, log entries or OnFailure calls.
// An unknown message type or a nil apply is a programming error and panics.
func (e *Engine) Dispatch(msg Message, apply ApplyFunc, cred client.Credential) {
	if apply == nil {
		panic("update: Dispatch called with nil apply")
	}

	var run func()
	switch m := msg.(type) {
	case LoadSection:
		run = func() { e.loadSection(m, apply, cred) }
	case SelectCard:
		seq := e.selection.Add(1)
		run = func() { e.selectCard(m, seq, apply, cred) }
	case UpdateCard:
		seq := e.selection.Add(1)
		run = func() { e.updateCard(m, seq, apply, cred) }
	default:
		panic(fmt.Sprintf("update: unhandled message %T", msg))
	}

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		run()
	}()
}

// Wait blocks until every dispatched message has been folded into the model.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// stale reports whether a newer selection-writing request has been issued.
func (e *Engine) stale(seq uint64) bool {
	return e.fence && e.selection.Load() != seq
}

func (e *Engine) loadSection(m LoadSection, apply ApplyFunc, cred client.Credential) {
	cards, err := e.transport.List(e.ctx, cred, m.Section)
	if err != nil {
		// The previously cached list stays in place.
		e.logger.Warn("load section failed",
			slog.String("section", string(m.Section)),
			slog.Int("status", client.StatusCode(err)),
			slog.String("error", err.Error()))
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}
	apply(func(model Model) Model {
		return model.withSection(m.Section, cards)
	})
}

func (e *Engine) selectCard(m SelectCard, seq uint64, apply ApplyFunc, cred client.Credential) {
	card, err := e.transport.Get(e.ctx, cred, m.Section, m.CardName)
	if err != nil {
		e.logger.Warn("select card failed",
			slog.String("section", string(m.Section)),
			slog.String("card", m.CardName),
			slog.Int("status", client.StatusCode(err)),
			slog.String("error", err.Error()))
	}
	apply(func(model Model) Model {
		if e.stale(seq) {
			return model
		}
		if err != nil {
			return model.withSelected(nil)
		}
		return model.withSelected(&card)
	})
}

func (e *Engine) updateCard(m UpdateCard, seq uint64, apply ApplyFunc, cred client.Credential) {
	card, err := e.transport.Patch(e.ctx, cred, m.Section, m.CardName, m.patch())
	if err != nil {
		e.logger.Debug("update card failed",
			slog.String("section", string(m.Section)),
			slog.String("card", m.CardName),
			slog.String("error", err.Error()))
		if m.OnFailure != nil {
			m.OnFailure(err)
		}
		return
	}
	apply(func(model Model) Model {
		if e.stale(seq) {
			return model
		}
		return model.withSelected(&card)
	})
	if m.OnSuccess != nil {
		m.OnSuccess(card)
	}
}
