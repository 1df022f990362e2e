// Package bridgerpc defines the wire contract between the orchestration
// engine and a component provider process: the request/response message
// shapes, the ComponentProvider gRPC service, and the JSON codec the service
// speaks. Property bags travel as JSON-like protobuf structs; the value-level
// conventions inside a bag belong to pkg/property.
package bridgerpc

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// PropertyDependencies names the components one property's value depends on.
type PropertyDependencies struct {
	URNs []string `json:"urns,omitempty"`
}

// ConstructRequest asks the provider to create a component.
type ConstructRequest struct {
	// Engine configuration, applied as a full overwrite before anything else.
	Project          string            `json:"project,omitempty"`
	Stack            string            `json:"stack,omitempty"`
	Parallel         int32             `json:"parallel,omitempty" validate:"gte=0"`
	MonitorEndpoint  string            `json:"monitorEndpoint,omitempty"`
	DryRun           bool              `json:"dryRun,omitempty"`
	Config           map[string]string `json:"config,omitempty"`
	ConfigSecretKeys []string          `json:"configSecretKeys,omitempty"`

	// Target component.
	Type   string           `json:"type" validate:"required"`
	Name   string           `json:"name" validate:"required"`
	Inputs *structpb.Struct `json:"inputs,omitempty"`

	// InputDependencies maps each input key to the components its value
	// depends on. A key absent here has an empty dependency set.
	InputDependencies map[string]PropertyDependencies `json:"inputDependencies,omitempty"`

	// Component options.
	Parent       string            `json:"parent,omitempty"`
	Aliases      []string          `json:"aliases,omitempty"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Protect      bool              `json:"protect,omitempty"`
	Providers    map[string]string `json:"providers,omitempty"`
}

// ConstructResponse carries the created component's identity and state.
type ConstructResponse struct {
	URN               string                          `json:"urn"`
	State             *structpb.Struct                `json:"state,omitempty"`
	StateDependencies map[string]PropertyDependencies `json:"stateDependencies,omitempty"`
}

// CallRequest asks the provider to invoke a component method.
type CallRequest struct {
	Project          string            `json:"project,omitempty"`
	Stack            string            `json:"stack,omitempty"`
	Parallel         int32             `json:"parallel,omitempty" validate:"gte=0"`
	MonitorEndpoint  string            `json:"monitorEndpoint,omitempty"`
	DryRun           bool              `json:"dryRun,omitempty"`
	Config           map[string]string `json:"config,omitempty"`
	ConfigSecretKeys []string          `json:"configSecretKeys,omitempty"`

	// Tok names the method being invoked.
	Tok  string           `json:"tok" validate:"required"`
	Args *structpb.Struct `json:"args,omitempty"`

	// ArgDependencies maps each argument key to the components its value
	// depends on.
	ArgDependencies map[string]PropertyDependencies `json:"argDependencies,omitempty"`
}

// CheckFailure reports one non-fatal argument validation failure.
type CheckFailure struct {
	Property string `json:"property"`
	Reason   string `json:"reason"`
}

// CallResponse carries the invocation's outputs and any validation failures.
type CallResponse struct {
	Return             *structpb.Struct                `json:"return,omitempty"`
	ReturnDependencies map[string]PropertyDependencies `json:"returnDependencies,omitempty"`
	Failures           []CheckFailure                  `json:"failures,omitempty"`
}

// ConfigureRequest negotiates engine/provider capabilities.
type ConfigureRequest struct{}

// ConfigureResponse declares the bridge's fixed capabilities.
type ConfigureResponse struct {
	AcceptSecrets   bool `json:"acceptSecrets"`
	AcceptResources bool `json:"acceptResources"`
}

// PluginInfoRequest asks for plugin metadata.
type PluginInfoRequest struct{}

// PluginInfo is the plugin metadata response.
type PluginInfo struct {
	Version string `json:"version"`
}

// GetSchemaRequest asks for the provider's declared schema.
type GetSchemaRequest struct {
	Version int32 `json:"version"`
}

// GetSchemaResponse carries the schema document.
type GetSchemaResponse struct {
	Schema string `json:"schema"`
}
