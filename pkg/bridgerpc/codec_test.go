package bridgerpc

import (
	"testing"

	"google.golang.org/protobuf/types/known/structpb"
)

func TestCodecRoundTripsConstructRequest(t *testing.T) {
	inputs, err := structpb.NewStruct(map[string]interface{}{
		"content": "hello",
		"count":   float64(3),
		"nested": map[string]interface{}{
			"__sig": "graft/secret",
			"value": "hunter2",
		},
		"list": []interface{}{"a", "b"},
	})
	if err != nil {
		t.Fatalf("building inputs: %v", err)
	}

	in := &ConstructRequest{
		Project:          "proj",
		Stack:            "dev",
		Parallel:         4,
		DryRun:           true,
		Config:           map[string]string{"k": "v"},
		ConfigSecretKeys: []string{"k"},
		Type:             "pkg:index:Thing",
		Name:             "mine",
		Inputs:           inputs,
		InputDependencies: map[string]PropertyDependencies{
			"content": {URNs: []string{"urn:graft:a"}},
		},
		Parent:    "urn:graft:parent",
		Protect:   true,
		Providers: map[string]string{"aws": "urn:graft:p::id"},
	}

	data, err := Codec{}.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	out := new(ConstructRequest)
	if err := (Codec{}).Unmarshal(data, out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out.Project != "proj" || out.Stack != "dev" || out.Parallel != 4 || !out.DryRun {
		t.Errorf("engine options lost: %+v", out)
	}
	if out.Type != in.Type || out.Name != in.Name || out.Parent != in.Parent || !out.Protect {
		t.Errorf("component fields lost: %+v", out)
	}
	if out.Config["k"] != "v" || len(out.ConfigSecretKeys) != 1 {
		t.Errorf("config lost: %+v", out)
	}
	if got := out.InputDependencies["content"].URNs; len(got) != 1 || got[0] != "urn:graft:a" {
		t.Errorf("input dependencies lost: %v", got)
	}

	if out.Inputs.Fields["content"].GetStringValue() != "hello" {
		t.Errorf("inputs content = %v", out.Inputs.Fields["content"])
	}
	if out.Inputs.Fields["count"].GetNumberValue() != 3 {
		t.Errorf("inputs count = %v", out.Inputs.Fields["count"])
	}
	nested := out.Inputs.Fields["nested"].GetStructValue()
	if nested == nil || nested.Fields["__sig"].GetStringValue() != "graft/secret" {
		t.Errorf("inputs nested = %v", out.Inputs.Fields["nested"])
	}
	if vals := out.Inputs.Fields["list"].GetListValue().GetValues(); len(vals) != 2 {
		t.Errorf("inputs list = %v", vals)
	}
}

func TestCodecRoundTripsCallResponse(t *testing.T) {
	ret, err := structpb.NewStruct(map[string]interface{}{"url": "https://x"})
	if err != nil {
		t.Fatalf("building return: %v", err)
	}

	in := &CallResponse{
		Return: ret,
		ReturnDependencies: map[string]PropertyDependencies{
			"url": {URNs: []string{"urn:graft:a", "urn:graft:b"}},
		},
		Failures: []CheckFailure{
			{Property: "size", Reason: "must be positive"},
		},
	}

	data, err := Codec{}.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := new(CallResponse)
	if err := (Codec{}).Unmarshal(data, out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out.Return.Fields["url"].GetStringValue() != "https://x" {
		t.Errorf("return = %v", out.Return)
	}
	if got := out.ReturnDependencies["url"].URNs; len(got) != 2 {
		t.Errorf("return dependencies = %v", got)
	}
	if len(out.Failures) != 1 || out.Failures[0] != in.Failures[0] {
		t.Errorf("failures = %+v", out.Failures)
	}
}

func TestCodecName(t *testing.T) {
	if (Codec{}).Name() != CodecName {
		t.Errorf("codec name = %q", Codec{}.Name())
	}
}
