package tools

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/antoniostano/hearth/internal/reliability"
)

// FallbackResponse is spoken when a call cannot be served at all: unknown
// tool, handler panic, or an error with no user-facing message.
const FallbackResponse = "I'm sorry, I wasn't able to do that."

const genericErrorResponse = "I encountered an error with that request."

// Invocation is one function call requested by the model.
type Invocation struct {
	ID   string
	Name string
	Args map[string]any
}

// Result is the answer returned to the model. Every invocation produces
// exactly one, whatever happens inside the handler.
type Result struct {
	ID       string
	Name     string
	Response string
}

// Handler executes one tool call and returns the text spoken back to the
// model. A returned error is folded into an explanatory response.
type Handler func(ctx context.Context, inv Invocation) (string, error)

// Dispatcher routes model function calls to registered handlers. Calls for
// names outside the session's toolset are answered with the fallback and
// logged as protocol violations rather than dropped.
type Dispatcher struct {
	handlers map[string]Handler
	timeout  time.Duration
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		handlers: make(map[string]Handler),
		timeout:  timeout,
	}
}

// Register binds a handler to a tool name, replacing any previous binding.
func (d *Dispatcher) Register(name string, h Handler) {
	d.handlers[name] = h
}

// Registered reports whether a handler exists for name.
func (d *Dispatcher) Registered(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// Dispatch executes the invocation and always returns a Result. Handler
// errors, panics, and timeouts all surface as spoken explanations so the
// conversation keeps moving.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) Result {
	res := Result{ID: inv.ID, Name: inv.Name}

	h, ok := d.handlers[inv.Name]
	if !ok {
		violation := &reliability.ProtocolViolation{Detail: fmt.Sprintf("call for unregistered tool %q", inv.Name)}
		log.Printf("tools: %v", violation)
		res.Response = FallbackResponse
		return res
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res.Response = d.run(callCtx, h, inv)
	return res
}

func (d *Dispatcher) run(ctx context.Context, h Handler, inv Invocation) (response string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("tools: handler %s panicked: %v", inv.Name, r)
			response = FallbackResponse
		}
	}()

	out, err := h(ctx, inv)
	if err != nil {
		log.Printf("tools: %s failed: %v", inv.Name, &reliability.ToolExecutionError{Tool: inv.Name, Err: err})
		if out != "" {
			return out
		}
		return genericErrorResponse
	}
	if out == "" {
		return FallbackResponse
	}
	return out
}
