package provider

import (
	"context"

	"github.com/graftlabs/graft/pkg/property"
)

// Output is a deferred value binding three independently-settled facets: the
// eventual concrete value, whether the value is secret, and the set of
// component handles the value depends on. The dependency handles never own
// the components they name.
//
// Unknown-ness is deliberately not a facet here: a not-yet-known value
// travels inside the value facet as a property.Computed marker, and the known
// facet stays true. Collapsing the two would change what round-trips over the
// wire.
type Output struct {
	deps   []*Component
	value  *Future[interface{}]
	known  *Future[bool]
	secret *Future[bool]
}

// NewOutput creates an unresolved output depending on the given components.
func NewOutput(deps ...*Component) *Output {
	return &Output{
		deps:   deps,
		value:  NewFuture[interface{}](),
		known:  NewFuture[bool](),
		secret: NewFuture[bool](),
	}
}

// NewResolvedOutput creates an output whose facets are all settled.
func NewResolvedOutput(value interface{}, known, secret bool, deps ...*Component) *Output {
	o := NewOutput(deps...)
	o.Resolve(value, known, secret)
	return o
}

// Resolve settles all three facets at once. Only the first resolution of each
// facet takes effect.
func (o *Output) Resolve(value interface{}, known, secret bool) {
	o.value.Resolve(value)
	o.known.Resolve(known)
	o.secret.Resolve(secret)
}

// Reject settles the output as failed.
func (o *Output) Reject(err error) {
	o.value.Reject(err)
	o.known.Reject(err)
	o.secret.Reject(err)
}

// Value returns the settled concrete value.
func (o *Output) Value(ctx context.Context) (interface{}, error) {
	return o.value.Result(ctx)
}

// Known reports whether the settled value is concrete.
func (o *Output) Known(ctx context.Context) (bool, error) {
	return o.known.Result(ctx)
}

// IsSecret reports whether the settled value is secret.
func (o *Output) IsSecret(ctx context.Context) (bool, error) {
	return o.secret.Result(ctx)
}

// Dependencies returns the components the output depends on.
func (o *Output) Dependencies() []*Component {
	return o.deps
}

// Await implements property.Deferred so the codec can encode outputs and
// collect their dependency edges.
func (o *Output) Await(ctx context.Context) (property.Resolved, error) {
	value, err := o.value.Result(ctx)
	if err != nil {
		return property.Resolved{}, err
	}
	known, err := o.known.Result(ctx)
	if err != nil {
		return property.Resolved{}, err
	}
	secret, err := o.secret.Result(ctx)
	if err != nil {
		return property.Resolved{}, err
	}

	deps := make([]property.Dependency, len(o.deps))
	for i, d := range o.deps {
		deps[i] = d
	}
	return property.Resolved{Value: value, Known: known, Secret: secret, Deps: deps}, nil
}
