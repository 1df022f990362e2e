package provider

import (
	"github.com/graftlabs/graft/pkg/property"
)

// buildInput decides, for one decoded top-level property, whether the handler
// sees the raw value or a deferred Output. The common case (plain value, no
// dependencies) stays unwrapped to avoid the indirection; everything secret
// or dependency-bearing is wrapped so secrecy and dependency edges survive
// the rest of the pipeline.
func buildInput(v property.Value, deps []string) interface{} {
	// A component reference depending only on itself needs no wrapper.
	if isSelfReference(v, deps) {
		return v
	}

	secret := v.IsSecret()
	if !secret && len(deps) == 0 {
		return v
	}

	handles := make([]*Component, len(deps))
	for i, urn := range deps {
		handles[i] = NewComponent(urn)
	}

	// The known facet is always true: if the value is or contains an unknown
	// marker, that marker travels inside the value facet itself.
	return NewResolvedOutput(v.Unsecret(), true, secret, handles...)
}

// isSelfReference reports whether v is a component reference whose declared
// dependency set is exactly the referenced component itself.
func isSelfReference(v property.Value, deps []string) bool {
	return v.IsReference() && len(deps) == 1 && deps[0] == v.ReferenceValue().URN
}
