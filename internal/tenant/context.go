// Package tenant binds every request to one tenant schema before any
// query executes. The binding is an explicit context value, never
// process-wide state, so concurrent requests for different tenants
// cannot corrupt each other's partition.
package tenant

import (
	"context"
	"sync"
)

// DefaultSchema serves unauthenticated and unresolvable requests.
const DefaultSchema = "public"

// Binding is the request-scoped cell holding the active schema. It is
// created with the default schema and may be resolved exactly once;
// later attempts are ignored so already-executed data calls keep their
// meaning for the rest of the request.
type Binding struct {
	mu       sync.Mutex
	schema   string
	resolved bool
}

func NewBinding(defaultSchema string) *Binding {
	if defaultSchema == "" {
		defaultSchema = DefaultSchema
	}
	return &Binding{schema: defaultSchema}
}

// Resolve sets the active schema. Only the first call wins; it reports
// whether this call performed the resolution.
func (b *Binding) Resolve(schema string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resolved || schema == "" {
		return false
	}
	b.schema = schema
	b.resolved = true
	return true
}

// Schema returns the active schema.
func (b *Binding) Schema() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.schema
}

// Resolved reports whether the resolver already ran for this request.
func (b *Binding) Resolved() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resolved
}

type bindingKey struct{}

// Bind installs a fresh binding with the given default schema. Called at
// request start, before authentication.
func Bind(ctx context.Context, defaultSchema string) context.Context {
	return context.WithValue(ctx, bindingKey{}, NewBinding(defaultSchema))
}

// FromContext returns the request binding, if any.
func FromContext(ctx context.Context) (*Binding, bool) {
	b, ok := ctx.Value(bindingKey{}).(*Binding)
	return b, ok
}

// Schema returns the active schema for the request, falling back to the
// default when no binding was installed (e.g. background work).
func Schema(ctx context.Context) string {
	if b, ok := FromContext(ctx); ok {
		return b.Schema()
	}
	return DefaultSchema
}

// WithSchema installs a pre-resolved binding. Used by system operations
// and tests that address a known schema directly.
func WithSchema(ctx context.Context, schema string) context.Context {
	b := NewBinding(schema)
	b.resolved = true
	return context.WithValue(ctx, bindingKey{}, b)
}
