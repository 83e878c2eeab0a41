package invoke

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/heracore/backend/domain"
)

// Request carries everything a procedure handler needs to execute.
type Request struct {
	Code           *domain.SmartCode
	OrganizationID string
	UserID         string
	CorrelationID  string
	Payload        json.RawMessage
}

// Handler executes one procedure. The returned value is serialized into the
// result envelope and, for mutating procedures, into the idempotency ledger.
type Handler func(ctx context.Context, req Request) (interface{}, error)

type registration struct {
	handler  Handler
	mutating bool
}

// Registry maps canonical smart codes to handlers. All registrations happen
// at startup; an unknown code at invoke time is a ProcedureNotFound, never a
// silent fallback.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]registration),
	}
}

// RegisterMutation registers a handler whose effects go through the
// idempotency ledger.
func (r *Registry) RegisterMutation(canonical string, handler Handler) {
	r.register(canonical, handler, true)
}

// RegisterQuery registers a read-only handler; queries bypass the ledger.
func (r *Registry) RegisterQuery(canonical string, handler Handler) {
	r.register(canonical, handler, false)
}

func (r *Registry) register(canonical string, handler Handler, mutating bool) {
	if canonical == "" || handler == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[canonical] = registration{handler: handler, mutating: mutating}
}

func (r *Registry) resolve(canonical string) (registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.handlers[canonical]
	return reg, ok
}

// Codes returns the registered canonical codes, for startup logging.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.handlers))
	for code := range r.handlers {
		codes = append(codes, code)
	}
	return codes
}
