package update

import (
	"sync"

	"github.com/starford/strength/internal/client"
)

// Program ties an Engine to the Loop that owns its Model and to the
// credential supplied by the auth collaborator.
type Program struct {
	engine *Engine
	loop   *Loop

	mu   sync.RWMutex
	cred client.Credential
}

// NewProgram starts a program with an empty model.
func NewProgram(engine *Engine, cred client.Credential, render RenderFunc) *Program {
	return &Program{
		engine: engine,
		loop:   NewLoop(NewModel(), render),
		cred:   cred,
	}
}

// Dispatch sends msg through the engine with the current credential.
func (p *Program) Dispatch(msg Message) {
	p.engine.Dispatch(msg, p.loop.Apply, p.Credential())
}

// Model returns a snapshot of the current model.
func (p *Program) Model() Model {
	return p.loop.Model()
}

// Credential returns the credential used for new dispatches.
func (p *Program) Credential() client.Credential {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cred
}

// SetCredential replaces the credential, for example after login or logout.
// In-flight dispatches keep the credential they started with.
func (p *Program) SetCredential(cred client.Credential) {
	p.mu.Lock()
	p.cred = cred
	p.mu.Unlock()
}

// Wait blocks until all dispatched messages have been applied.
func (p *Program) Wait() {
	p.engine.Wait()
}

// Close waits for in-flight dispatches and stops the model loop.
func (p *Program) Close() {
	p.engine.Wait()
	p.loop.Close()
}
