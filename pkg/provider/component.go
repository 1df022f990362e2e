package provider

import (
	"context"
	"fmt"
	"strings"
)

// Component is a non-owning handle on a component the engine manages. The
// handle carries only the component's identity; it never holds the component
// itself. The URN may settle asynchronously for components still being
// created when the handle was taken.
type Component struct {
	urn *Future[string]

	// id is the provider-assigned identifier, set only for handles parsed
	// from an engine provider reference.
	id string
}

// NewComponent creates a handle whose URN is already known.
func NewComponent(urn string) *Component {
	return &Component{urn: ResolvedFuture(urn)}
}

// NewPendingComponent creates a handle whose URN settles later via the
// returned future.
func NewPendingComponent() (*Component, *Future[string]) {
	f := NewFuture[string]()
	return &Component{urn: f}, f
}

// URN returns the component's URN, waiting for it to settle if necessary.
func (c *Component) URN(ctx context.Context) (string, error) {
	return c.urn.Result(ctx)
}

// ID returns the provider-assigned identifier, empty when unknown.
func (c *Component) ID() string {
	return c.id
}

// ParseProviderReference parses an engine provider reference of the form
// "urn::id" into a component handle.
func ParseProviderReference(ref string) (*Component, error) {
	idx := strings.LastIndex(ref, "::")
	if idx <= 0 || idx+2 >= len(ref) {
		return nil, fmt.Errorf("malformed provider reference %q", ref)
	}
	c := NewComponent(ref[:idx])
	c.id = ref[idx+2:]
	return c, nil
}
