// Package property implements the tagged value representation for component
// properties and the codec between that representation and the engine's
// wire-format property bags.
//
// A bag on the wire is a JSON-like protobuf struct. Three things travel in it
// that JSON alone cannot express: secret-wrapped values, not-yet-known
// markers produced during dry runs, and references to components the engine
// already manages. The codec preserves all three in both directions, and on
// the encode path additionally collects, per top-level key, the set of
// component handles the key's value depends on so the caller can re-encode
// dependency edges.
package property
