package provider

import (
	"context"
)

// Provider is the handler contract a component provider implements. The
// bridge owns everything else: decoding engine requests into the values the
// handler sees, re-encoding its results, and the concurrency discipline
// around both.
type Provider interface {
	// Version is the provider's semantic version, reported to the engine.
	Version() string

	// Schema returns the provider's schema document, or empty when it
	// declares none.
	Schema() string

	// Construct creates a component. Inputs are plain property values or
	// *Output wrappers; the handler must not assume every value is concrete
	// during a dry run.
	Construct(ctx context.Context, typ, name string, inputs map[string]interface{}, opts *ConstructOptions) (*ConstructResult, error)

	// Call invokes a component method named by token.
	Call(ctx context.Context, token string, args *CallArgs) (*CallResult, error)
}

// ConstructOptions are the engine-resolved options for a construct.
type ConstructOptions struct {
	// Parent is the component's parent, nil for top-level components.
	Parent *Component

	// Aliases are previous identities of the component.
	Aliases []string

	// DependsOn are explicit dependencies beyond those carried by inputs.
	DependsOn []*Component

	// Protect prevents the engine from deleting the component.
	Protect bool

	// Providers maps package names to the provider instances to use.
	Providers map[string]*Component
}

// ConstructResult is what a handler returns from Construct.
type ConstructResult struct {
	// URN is the created component's identity: a string, a *Future[string],
	// or an *Output resolving to a string. A deferred identity is awaited
	// during response encoding.
	URN interface{}

	// State is the component's resulting state. The reserved identity keys
	// "id" and "urn" are stripped before encoding; the engine receives
	// identity out of band.
	State map[string]interface{}
}

// CallArgs are the decoded arguments of a method invocation. The implicit
// receiver travels on the wire under an internal key; the bridge surfaces it
// here explicitly so handlers never sniff key names.
type CallArgs struct {
	// Self is the invocation's receiver value, nil when the token is not a
	// method.
	Self interface{}

	// Args are the public arguments.
	Args map[string]interface{}
}

// CheckFailure reports one non-fatal argument validation failure.
type CheckFailure struct {
	// Property is the argument that failed validation.
	Property string

	// Reason says why.
	Reason string
}

// CallResult is what a handler returns from Call.
type CallResult struct {
	// Outputs are the invocation's return values.
	Outputs map[string]interface{}

	// Failures are argument validation failures, reported in order inside an
	// otherwise-successful response.
	Failures []CheckFailure
}
