package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/agentloom/internal/schema"
)

// ErrToolNotFound is returned when resolving or dispatching an unregistered
// tool name.
var ErrToolNotFound = errors.New("tool not found")

// Registry maps tool names to executable capabilities with declared input
// schemas. It is pure dispatch metadata plus indirection to handlers supplied
// by external collaborators; the registry itself performs no I/O and holds no
// network or database handles.
//
// Registration is expected to happen at startup, serialized against
// execution start. After that the registry is read-mostly and safe for
// concurrent reads. Re-registering a name overwrites atomically (last write
// wins) and is the only mutation path.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	descriptor Descriptor
	handler    Handler
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a tool keyed by its descriptor name. A nil handler or empty
// name is rejected; an existing registration under the same name is replaced.
func (r *Registry) Register(desc Descriptor, h Handler) error {
	if desc.Name == "" {
		return errors.New("tool descriptor requires a name")
	}
	if h == nil {
		return fmt.Errorf("tool %s requires a handler", desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[desc.Name] = entry{descriptor: desc, handler: h}
	return nil
}

// RegisterFunc is a convenience wrapper registering a plain function handler.
func (r *Registry) RegisterFunc(desc Descriptor, fn Func) error {
	return r.Register(desc, fn)
}

// Resolve returns the handler registered under name or ErrToolNotFound.
func (r *Registry) Resolve(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return e.handler, nil
}

// Descriptor returns the descriptor registered under name.
func (r *Registry) Descriptor(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return e.descriptor, nil
}

// Descriptors returns all registered descriptors sorted by name for a
// deterministic model-facing tool list.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns all registered tool names sorted ascending.
func (r *Registry) Names() []string {
	descs := r.Descriptors()
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Validate checks args against the named tool's declared schema. It returns
// ErrToolNotFound for unknown names and a *SchemaError aggregating missing
// required fields and primitive type mismatches otherwise. Dispatch never
// proceeds on a validation failure.
func (r *Registry) Validate(name string, args map[string]any) error {
	desc, err := r.Descriptor(name)
	if err != nil {
		return err
	}
	if desc.Parameters == nil {
		return nil
	}
	return schema.Validate(args, desc.Parameters)
}

// Dispatch validates args then invokes the named handler. Validation and
// execution failures are wrapped as *ToolError for uniform downstream
// handling:
//
//	unknown name        -> *ToolError{Code: NOT_FOUND}
//	validation failure  -> *ToolError{Code: VALIDATION_ERROR}
//	*ToolError returned -> forwarded unchanged
//	other error         -> *ToolError{Code: EXECUTION_ERROR}
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	handler, err := r.Resolve(name)
	if err != nil {
		return nil, &ToolError{Tool: name, Message: err.Error(), Code: CodeNotFound}
	}

	if err := r.Validate(name, args); err != nil {
		return nil, &ToolError{
			Tool:    name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := handler.Call(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) { // already a ToolError -> forward unchanged
			return nil, toolErr
		}
		return nil, &ToolError{Tool: name, Message: err.Error(), Code: CodeExecution}
	}

	return result, nil
}
