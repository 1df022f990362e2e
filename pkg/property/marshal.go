package property

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"google.golang.org/protobuf/types/known/structpb"
)

// Wire markers. A property bag is a JSON-like protobuf struct; values that
// carry more than JSON can express (secrets, component references) travel as
// single-key-tagged objects, and not-yet-known values travel as a sentinel
// string that cannot collide with user data.
const (
	// SigKey tags an object on the wire as a special value rather than a
	// plain property object.
	SigKey = "__sig"

	// SecretSig marks a secret-wrapped value; the wrapped value is in the
	// "value" field.
	SecretSig = "graft/secret"

	// ReferenceSig marks a reference to an engine-managed component; the
	// component URN is in the "urn" field and its provider-assigned ID, when
	// known, in "id".
	ReferenceSig = "graft/reference"

	// UnknownStringValue stands in for a value whose concrete form is not yet
	// determined, e.g. during a dry run.
	UnknownStringValue = "8f4c1c7e-41c6-47e8-8a25-8b35cbc4f3d5"
)

// UnmarshalOptions controls how a wire bag is decoded.
type UnmarshalOptions struct {
	// KeepUnknowns retains not-yet-known markers instead of decoding them as
	// null. Input decoding turns this on so the handler can see them.
	KeepUnknowns bool

	// KeepInternal retains keys reserved for bridge internals ("__"-prefixed).
	// The call-argument path turns this on because one such key carries the
	// invocation's implicit receiver.
	KeepInternal bool
}

// UnmarshalProperties decodes a wire-format property bag into a Map. A nil
// bag decodes to an empty map. Malformed values are a fatal decode error.
func UnmarshalProperties(bag *structpb.Struct, opts UnmarshalOptions) (Map, error) {
	result := make(Map)
	if bag == nil {
		return result, nil
	}

	// Sort the keys so errors surface deterministically.
	keys := make([]string, 0, len(bag.Fields))
	for k := range bag.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if IsInternalKey(key) && !opts.KeepInternal {
			continue
		}
		v, err := UnmarshalPropertyValue(bag.Fields[key], opts)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
		result[key] = v
	}
	return result, nil
}

// UnmarshalPropertyValue decodes a single wire value.
func UnmarshalPropertyValue(v *structpb.Value, opts UnmarshalOptions) (Value, error) {
	if v == nil {
		return Value{}, fmt.Errorf("missing wire value")
	}

	switch v.Kind.(type) {
	case *structpb.Value_NullValue:
		return NewNull(), nil
	case *structpb.Value_BoolValue:
		return NewBool(v.GetBoolValue()), nil
	case *structpb.Value_NumberValue:
		return NewNumber(v.GetNumberValue()), nil
	case *structpb.Value_StringValue:
		if v.GetStringValue() == UnknownStringValue {
			if opts.KeepUnknowns {
				return NewComputed(), nil
			}
			return NewNull(), nil
		}
		return NewString(v.GetStringValue()), nil
	case *structpb.Value_ListValue:
		values := v.GetListValue().GetValues()
		elems := make([]Value, len(values))
		for i, elem := range values {
			ev, err := UnmarshalPropertyValue(elem, opts)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return NewArray(elems), nil
	case *structpb.Value_StructValue:
		return unmarshalStruct(v.GetStructValue(), opts)
	default:
		return Value{}, fmt.Errorf("unrecognized wire value kind %v", reflect.TypeOf(v.Kind))
	}
}

// unmarshalStruct decodes an object, first checking for the special-value tag.
func unmarshalStruct(s *structpb.Struct, opts UnmarshalOptions) (Value, error) {
	sigField, tagged := s.Fields[SigKey]
	if !tagged {
		obj, err := UnmarshalProperties(s, opts)
		if err != nil {
			return Value{}, err
		}
		return NewObject(obj), nil
	}

	sig := sigField.GetStringValue()
	switch sig {
	case SecretSig:
		wrapped, ok := s.Fields["value"]
		if !ok {
			return Value{}, fmt.Errorf("secret value missing its payload")
		}
		elem, err := UnmarshalPropertyValue(wrapped, opts)
		if err != nil {
			return Value{}, err
		}
		return NewSecret(elem), nil
	case ReferenceSig:
		urn := s.Fields["urn"].GetStringValue()
		if urn == "" {
			return Value{}, fmt.Errorf("component reference missing its urn")
		}
		var id string
		if f, ok := s.Fields["id"]; ok {
			id = f.GetStringValue()
		}
		return NewReference(urn, id), nil
	default:
		return Value{}, fmt.Errorf("unrecognized special value signature %q", sig)
	}
}

// Dependency is a non-owning handle on an engine-managed component. The URN
// may resolve asynchronously; resolution is a suspension point.
type Dependency interface {
	URN(ctx context.Context) (string, error)
}

// Resolved is the settled form of a deferred value.
type Resolved struct {
	// Value is the concrete value, secret wrapping already stripped.
	Value interface{}

	// Known is false when the concrete form is not yet determined.
	Known bool

	// Secret reports whether the value must stay secret-wrapped on the wire.
	Secret bool

	// Deps are the components the value's resolution depends on.
	Deps []Dependency
}

// Deferred is a value whose concrete form, secrecy, and dependency set
// resolve asynchronously. Awaiting one is a suspension point.
type Deferred interface {
	Await(ctx context.Context) (Resolved, error)
}

// DependencyRecorder collects, per top-level property key, the component
// handles every deferred value (or bare component handle) under that key
// depends on. Encoding a bag populates one as a side effect.
type DependencyRecorder struct {
	key  string
	deps map[string][]Dependency
}

// NewDependencyRecorder creates an empty recorder.
func NewDependencyRecorder() *DependencyRecorder {
	return &DependencyRecorder{deps: make(map[string][]Dependency)}
}

// Dependencies returns the recorded handles keyed by top-level property name.
// Keys with no dependencies are absent.
func (r *DependencyRecorder) Dependencies() map[string][]Dependency {
	if r == nil {
		return nil
	}
	return r.deps
}

func (r *DependencyRecorder) forKey(key string) {
	if r != nil {
		r.key = key
	}
}

func (r *DependencyRecorder) record(deps ...Dependency) {
	if r == nil || len(deps) == 0 {
		return
	}
	r.deps[r.key] = append(r.deps[r.key], deps...)
}

// MarshalProperties encodes in-process result values into a wire-format bag.
// Values may be plain Go values, Value/Map, Dependency handles, or Deferred
// values; deferred values are resolved (awaited) during encoding and their
// dependency handles are recorded against the enclosing top-level key. The
// recorder may be nil when the caller does not need dependency edges.
func MarshalProperties(ctx context.Context, props map[string]interface{}, rec *DependencyRecorder) (*structpb.Struct, error) {
	result := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(props))}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rec.forKey(key)
		mv, err := MarshalPropertyValue(ctx, props[key], rec)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
		result.Fields[key] = mv
	}
	return result, nil
}

// MarshalPropertyValue encodes a single in-process value into its wire form.
func MarshalPropertyValue(ctx context.Context, v interface{}, rec *DependencyRecorder) (*structpb.Value, error) {
	switch t := v.(type) {
	case nil:
		return structpb.NewNullValue(), nil

	case Deferred:
		return marshalDeferred(ctx, t, rec)

	case Dependency:
		// A bare component handle used as a property value serializes as a
		// reference and contributes a dependency edge.
		urn, err := t.URN(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving component urn: %w", err)
		}
		rec.record(t)
		return marshalReference(Reference{URN: urn}), nil

	case Value:
		return marshalValue(ctx, t, rec)
	case Map:
		return marshalValue(ctx, NewObject(t), rec)

	case bool:
		return structpb.NewBoolValue(t), nil
	case string:
		return structpb.NewStringValue(t), nil
	case int:
		return structpb.NewNumberValue(float64(t)), nil
	case int32:
		return structpb.NewNumberValue(float64(t)), nil
	case int64:
		return structpb.NewNumberValue(float64(t)), nil
	case uint:
		return structpb.NewNumberValue(float64(t)), nil
	case uint32:
		return structpb.NewNumberValue(float64(t)), nil
	case uint64:
		return structpb.NewNumberValue(float64(t)), nil
	case float32:
		return structpb.NewNumberValue(float64(t)), nil
	case float64:
		return structpb.NewNumberValue(t), nil

	case []interface{}:
		elems := make([]*structpb.Value, len(t))
		for i, e := range t {
			ev, err := MarshalPropertyValue(ctx, e, rec)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return structpb.NewListValue(&structpb.ListValue{Values: elems}), nil

	case map[string]interface{}:
		fields := make(map[string]*structpb.Value, len(t))
		for k, e := range t {
			ev, err := MarshalPropertyValue(ctx, e, rec)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			fields[k] = ev
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
	}

	// Other slice and string-keyed map shapes walk generically.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]*structpb.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := MarshalPropertyValue(ctx, rv.Index(i).Interface(), rec)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return structpb.NewListValue(&structpb.ListValue{Values: elems}), nil
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			fields := make(map[string]*structpb.Value, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				ev, err := MarshalPropertyValue(ctx, iter.Value().Interface(), rec)
				if err != nil {
					return nil, fmt.Errorf("key %q: %w", iter.Key().String(), err)
				}
				fields[iter.Key().String()] = ev
			}
			return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
		}
	}

	return nil, fmt.Errorf("unrecognized property value of type %T", v)
}

// marshalDeferred awaits a deferred value and encodes its settled form,
// recording its dependency handles.
func marshalDeferred(ctx context.Context, d Deferred, rec *DependencyRecorder) (*structpb.Value, error) {
	r, err := d.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving deferred value: %w", err)
	}
	rec.record(r.Deps...)

	var inner *structpb.Value
	if !r.Known {
		inner = structpb.NewStringValue(UnknownStringValue)
	} else {
		inner, err = MarshalPropertyValue(ctx, r.Value, rec)
		if err != nil {
			return nil, err
		}
	}
	if r.Secret {
		return marshalSecret(inner), nil
	}
	return inner, nil
}

// marshalValue encodes a tagged Value.
func marshalValue(ctx context.Context, v Value, rec *DependencyRecorder) (*structpb.Value, error) {
	switch {
	case v.IsNull():
		return structpb.NewNullValue(), nil
	case v.IsBool():
		return structpb.NewBoolValue(v.BoolValue()), nil
	case v.IsNumber():
		return structpb.NewNumberValue(v.NumberValue()), nil
	case v.IsString():
		return structpb.NewStringValue(v.StringValue()), nil
	case v.IsComputed():
		return structpb.NewStringValue(UnknownStringValue), nil
	case v.IsSecret():
		inner, err := marshalValue(ctx, v.SecretValue().Element, rec)
		if err != nil {
			return nil, err
		}
		return marshalSecret(inner), nil
	case v.IsReference():
		return marshalReference(v.ReferenceValue()), nil
	case v.IsArray():
		arr := v.ArrayValue()
		elems := make([]*structpb.Value, len(arr))
		for i, e := range arr {
			ev, err := marshalValue(ctx, e, rec)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return structpb.NewListValue(&structpb.ListValue{Values: elems}), nil
	case v.IsObject():
		obj := v.ObjectValue()
		fields := make(map[string]*structpb.Value, len(obj))
		for _, k := range obj.StableKeys() {
			ev, err := marshalValue(ctx, obj[k], rec)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			fields[k] = ev
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
	}
	return nil, fmt.Errorf("unrecognized property value kind")
}

func marshalSecret(inner *structpb.Value) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		SigKey:  structpb.NewStringValue(SecretSig),
		"value": inner,
	}})
}

func marshalReference(ref Reference) *structpb.Value {
	fields := map[string]*structpb.Value{
		SigKey: structpb.NewStringValue(ReferenceSig),
		"urn":  structpb.NewStringValue(ref.URN),
	}
	if ref.ID != "" {
		fields["id"] = structpb.NewStringValue(ref.ID)
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: fields})
}
