package cron

import (
	"context"

	"github.com/havenwerk/verhuur-backend/pkg/enums"
)

// Handler runs one scheduled job type.
type Handler interface {
	Type() enums.JobType
	Run(ctx context.Context) error
}

// Registry maps job types onto their handlers.
type Registry struct {
	handlers map[enums.JobType]Handler
	order    []enums.JobType
}

// NewRegistry builds a registry preloaded with the provided handlers.
func NewRegistry(handlers ...Handler) *Registry {
	registry := &Registry{handlers: map[enums.JobType]Handler{}}
	for _, handler := range handlers {
		registry.Register(handler)
	}
	return registry
}

// Register adds a handler; a later handler for the same job type wins.
func (r *Registry) Register(handler Handler) {
	if handler == nil {
		return
	}
	if _, exists := r.handlers[handler.Type()]; !exists {
		r.order = append(r.order, handler.Type())
	}
	r.handlers[handler.Type()] = handler
}

// Get returns the handler for a job type.
func (r *Registry) Get(jobType enums.JobType) (Handler, bool) {
	handler, ok := r.handlers[jobType]
	return handler, ok
}

// Handlers returns the registered handlers in registration order.
func (r *Registry) Handlers() []Handler {
	out := make([]Handler, 0, len(r.order))
	for _, jobType := range r.order {
		out = append(out, r.handlers[jobType])
	}
	return out
}
