package property

import (
	"context"
	"strings"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"
)

func mustMarshal(t *testing.T, props map[string]interface{}, rec *DependencyRecorder) *structpb.Struct {
	t.Helper()
	bag, err := MarshalProperties(context.Background(), props, rec)
	if err != nil {
		t.Fatalf("MarshalProperties failed: %v", err)
	}
	return bag
}

func mustUnmarshal(t *testing.T, bag *structpb.Struct, opts UnmarshalOptions) Map {
	t.Helper()
	m, err := UnmarshalProperties(bag, opts)
	if err != nil {
		t.Fatalf("UnmarshalProperties failed: %v", err)
	}
	return m
}

func TestUnmarshalProperties_NilBag(t *testing.T) {
	m := mustUnmarshal(t, nil, UnmarshalOptions{})
	if len(m) != 0 {
		t.Errorf("Expected empty map for nil bag, got %d entries", len(m))
	}
}

func TestRoundTrip_PlainSecretArrayObject(t *testing.T) {
	props := map[string]interface{}{
		"bool":   true,
		"number": 42.5,
		"string": "hello",
		"null":   nil,
		"array":  []interface{}{"a", 1.0, false},
		"object": map[string]interface{}{"nested": "value"},
		"secret": NewSecret(NewString("hunter2")),
	}

	bag := mustMarshal(t, props, nil)
	decoded := mustUnmarshal(t, bag, UnmarshalOptions{})

	reencoded, err := MarshalProperties(context.Background(), valuesAsAny(decoded), nil)
	if err != nil {
		t.Fatalf("re-encode failed: %v", err)
	}
	redecoded := mustUnmarshal(t, reencoded, UnmarshalOptions{})

	if !decoded.Equal(redecoded) {
		t.Errorf("round trip mismatch:\n first=%v\nsecond=%v", decoded, redecoded)
	}

	if !decoded["secret"].IsSecret() {
		t.Errorf("Expected secret to survive the round trip, got %v", decoded["secret"])
	}
	if got := decoded["secret"].SecretValue().Element.StringValue(); got != "hunter2" {
		t.Errorf("Expected secret payload %q, got %q", "hunter2", got)
	}
}

func valuesAsAny(m Map) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func TestUnmarshal_UnknownSentinel(t *testing.T) {
	bag := &structpb.Struct{Fields: map[string]*structpb.Value{
		"pending": structpb.NewStringValue(UnknownStringValue),
	}}

	kept := mustUnmarshal(t, bag, UnmarshalOptions{KeepUnknowns: true})
	if !kept["pending"].IsComputed() {
		t.Errorf("Expected computed value with KeepUnknowns, got %v", kept["pending"])
	}

	dropped := mustUnmarshal(t, bag, UnmarshalOptions{})
	if !dropped["pending"].IsNull() {
		t.Errorf("Expected null without KeepUnknowns, got %v", dropped["pending"])
	}
}

func TestUnmarshal_InternalKeys(t *testing.T) {
	bag := &structpb.Struct{Fields: map[string]*structpb.Value{
		SelfKey: structpb.NewStringValue("receiver"),
		"name":  structpb.NewStringValue("web"),
	}}

	filtered := mustUnmarshal(t, bag, UnmarshalOptions{})
	if _, ok := filtered[SelfKey]; ok {
		t.Errorf("Expected %s to be filtered by default", SelfKey)
	}
	if _, ok := filtered["name"]; !ok {
		t.Errorf("Expected public key to survive filtering")
	}

	kept := mustUnmarshal(t, bag, UnmarshalOptions{KeepInternal: true})
	if _, ok := kept[SelfKey]; !ok {
		t.Errorf("Expected %s to survive with KeepInternal", SelfKey)
	}
}

func TestUnmarshal_SecretAndReference(t *testing.T) {
	bag := &structpb.Struct{Fields: map[string]*structpb.Value{
		"password": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			SigKey:  structpb.NewStringValue(SecretSig),
			"value": structpb.NewStringValue("s3cr3t"),
		}}),
		"bucket": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			SigKey: structpb.NewStringValue(ReferenceSig),
			"urn":  structpb.NewStringValue("urn:graft:prod::bucket::b1"),
			"id":   structpb.NewStringValue("b-123"),
		}}),
	}}

	m := mustUnmarshal(t, bag, UnmarshalOptions{})

	if !m["password"].IsSecret() {
		t.Fatalf("Expected secret, got %v", m["password"])
	}
	if got := m["password"].SecretValue().Element.StringValue(); got != "s3cr3t" {
		t.Errorf("Expected secret payload %q, got %q", "s3cr3t", got)
	}

	if !m["bucket"].IsReference() {
		t.Fatalf("Expected reference, got %v", m["bucket"])
	}
	ref := m["bucket"].ReferenceValue()
	if ref.URN != "urn:graft:prod::bucket::b1" || ref.ID != "b-123" {
		t.Errorf("Unexpected reference: %+v", ref)
	}
}

func TestUnmarshal_UnrecognizedSignatureIsFatal(t *testing.T) {
	bag := &structpb.Struct{Fields: map[string]*structpb.Value{
		"odd": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			SigKey: structpb.NewStringValue("graft/no-such-kind"),
		}}),
	}}

	_, err := UnmarshalProperties(bag, UnmarshalOptions{})
	if err == nil {
		t.Fatal("Expected decode error for unrecognized signature")
	}
	if !strings.Contains(err.Error(), "unrecognized special value signature") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestUnmarshal_SecretMissingPayloadIsFatal(t *testing.T) {
	bag := &structpb.Struct{Fields: map[string]*structpb.Value{
		"broken": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			SigKey: structpb.NewStringValue(SecretSig),
		}}),
	}}

	if _, err := UnmarshalProperties(bag, UnmarshalOptions{}); err == nil {
		t.Fatal("Expected decode error for secret without payload")
	}
}

// staticDep is a resolved component handle for tests.
type staticDep struct{ urn string }

func (d staticDep) URN(ctx context.Context) (string, error) { return d.urn, nil }

// staticDeferred is a pre-resolved deferred value for tests.
type staticDeferred struct{ r Resolved }

func (d staticDeferred) Await(ctx context.Context) (Resolved, error) { return d.r, nil }

func TestMarshal_DeferredRecordsDependencies(t *testing.T) {
	dep := staticDep{urn: "urn:graft:prod::vpc::main"}
	props := map[string]interface{}{
		"endpoint": staticDeferred{r: Resolved{
			Value:  "https://example.test",
			Known:  true,
			Secret: false,
			Deps:   []Dependency{dep},
		}},
		"plain": "value",
	}

	rec := NewDependencyRecorder()
	bag := mustMarshal(t, props, rec)

	if got := bag.Fields["endpoint"].GetStringValue(); got != "https://example.test" {
		t.Errorf("Expected known deferred to encode its value, got %v", bag.Fields["endpoint"])
	}

	deps := rec.Dependencies()
	if len(deps["endpoint"]) != 1 {
		t.Fatalf("Expected 1 dependency for endpoint, got %d", len(deps["endpoint"]))
	}
	if urn, _ := deps["endpoint"][0].URN(context.Background()); urn != dep.urn {
		t.Errorf("Expected dependency urn %q, got %q", dep.urn, urn)
	}
	if _, ok := deps["plain"]; ok {
		t.Errorf("Expected no dependencies recorded for plain value")
	}
}

func TestMarshal_DeferredUnknownAndSecret(t *testing.T) {
	props := map[string]interface{}{
		"pending": staticDeferred{r: Resolved{Known: false, Secret: true}},
	}

	bag := mustMarshal(t, props, NewDependencyRecorder())

	wrapped := bag.Fields["pending"].GetStructValue()
	if wrapped == nil {
		t.Fatalf("Expected secret wrapper, got %v", bag.Fields["pending"])
	}
	if sig := wrapped.Fields[SigKey].GetStringValue(); sig != SecretSig {
		t.Errorf("Expected secret signature, got %q", sig)
	}
	if inner := wrapped.Fields["value"].GetStringValue(); inner != UnknownStringValue {
		t.Errorf("Expected unknown sentinel inside secret, got %q", inner)
	}
}

func TestMarshal_BareDependencyBecomesReference(t *testing.T) {
	dep := staticDep{urn: "urn:graft:prod::db::primary"}
	rec := NewDependencyRecorder()
	bag := mustMarshal(t, map[string]interface{}{"db": dep}, rec)

	ref := bag.Fields["db"].GetStructValue()
	if ref == nil || ref.Fields[SigKey].GetStringValue() != ReferenceSig {
		t.Fatalf("Expected reference encoding, got %v", bag.Fields["db"])
	}
	if got := ref.Fields["urn"].GetStringValue(); got != dep.urn {
		t.Errorf("Expected urn %q, got %q", dep.urn, got)
	}
	if len(rec.Dependencies()["db"]) != 1 {
		t.Errorf("Expected the bare handle to be recorded as a dependency")
	}
}

func TestMarshal_GoNativeShapes(t *testing.T) {
	props := map[string]interface{}{
		"ints":    []int{1, 2, 3},
		"strings": map[string]string{"a": "b"},
		"uint":    uint32(7),
	}

	bag := mustMarshal(t, props, nil)

	list := bag.Fields["ints"].GetListValue()
	if list == nil || len(list.Values) != 3 || list.Values[2].GetNumberValue() != 3 {
		t.Errorf("Unexpected slice encoding: %v", bag.Fields["ints"])
	}
	obj := bag.Fields["strings"].GetStructValue()
	if obj == nil || obj.Fields["a"].GetStringValue() != "b" {
		t.Errorf("Unexpected map encoding: %v", bag.Fields["strings"])
	}
	if bag.Fields["uint"].GetNumberValue() != 7 {
		t.Errorf("Unexpected uint encoding: %v", bag.Fields["uint"])
	}
}

func TestMarshal_UnrecognizedTypeIsFatal(t *testing.T) {
	type opaque struct{ ch chan int }
	_, err := MarshalProperties(context.Background(), map[string]interface{}{"bad": opaque{}}, nil)
	if err == nil {
		t.Fatal("Expected marshal error for unrecognized type")
	}
}
