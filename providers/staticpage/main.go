// Package main implements the staticpage component provider for Graft.
// It models a static web page as a component: the engine sends the page
// content, the provider materializes bucket/object/endpoint state and exposes
// a getURL method on the resulting component.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/graftlabs/graft/pkg/property"
	"github.com/graftlabs/graft/pkg/provider"
	"github.com/graftlabs/graft/pkg/settings"
)

const componentType = "staticpage:index:StaticPage"
const getURLToken = "staticpage:index:StaticPage/getURL"

// PageProvider implements the provider.Provider handler contract.
type PageProvider struct{}

// Version reports the provider version to the engine.
func (p *PageProvider) Version() string { return "0.1.0" }

// Schema returns the provider's schema document.
func (p *PageProvider) Schema() string { return pageSchema }

// Construct creates a StaticPage component.
func (p *PageProvider) Construct(ctx context.Context, typ, name string, inputs map[string]interface{}, opts *provider.ConstructOptions) (*provider.ConstructResult, error) {
	if typ != componentType {
		return nil, fmt.Errorf("unknown component type %q", typ)
	}

	content, err := stringInput(ctx, inputs["indexContent"])
	if err != nil {
		return nil, fmt.Errorf("input indexContent: %w", err)
	}
	if content == "" {
		return nil, fmt.Errorf("input indexContent is required")
	}

	project := "default"
	stack := "default"
	if snap, ok := settings.FromContext(ctx); ok {
		if o := snap.Options(); o.Project != "" {
			project = o.Project
			stack = o.Stack
		}
	}

	urn := fmt.Sprintf("urn:graft:%s::%s::%s::%s", stack, project, componentType, name)
	bucket := fmt.Sprintf("%s-%s-pages", project, name)
	endpoint := fmt.Sprintf("http://%s.pages.local/index.html", bucket)

	return &provider.ConstructResult{
		URN: urn,
		State: map[string]interface{}{
			"bucket":       bucket,
			"endpoint":     endpoint,
			"indexContent": content,
		},
	}, nil
}

// Call invokes a component method.
func (p *PageProvider) Call(ctx context.Context, token string, args *provider.CallArgs) (*provider.CallResult, error) {
	if token != getURLToken {
		return nil, fmt.Errorf("unknown method %q", token)
	}
	if args.Self == nil {
		return nil, fmt.Errorf("%s requires a receiver", token)
	}

	scheme := "http"
	if raw, ok := args.Args["secure"]; ok {
		v, ok := raw.(property.Value)
		if !ok || !v.IsBool() {
			return &provider.CallResult{
				Failures: []provider.CheckFailure{
					{Property: "secure", Reason: "must be a boolean"},
				},
			}, nil
		}
		if v.BoolValue() {
			scheme = "https"
		}
	}

	self, ok := args.Self.(property.Value)
	if !ok || !self.IsReference() {
		return nil, fmt.Errorf("receiver is not a component reference")
	}

	return &provider.CallResult{
		Outputs: map[string]interface{}{
			"url": fmt.Sprintf("%s://%s/index.html", scheme, pageHost(self.ReferenceValue().URN)),
		},
	}, nil
}

// stringInput settles an input to its string form, whether it arrived as a
// plain value or as a deferred output.
func stringInput(ctx context.Context, in interface{}) (string, error) {
	switch t := in.(type) {
	case nil:
		return "", nil
	case property.Value:
		if t.IsNull() {
			return "", nil
		}
		if !t.IsString() {
			return "", fmt.Errorf("expected a string, got %s", t)
		}
		return t.StringValue(), nil
	case *provider.Output:
		v, err := t.Value(ctx)
		if err != nil {
			return "", err
		}
		return stringInput(ctx, v)
	default:
		return "", fmt.Errorf("unexpected input type %T", in)
	}
}

// pageHost derives a stable host name from a component URN.
func pageHost(urn string) string {
	name := urn
	if idx := strings.LastIndex(urn, "::"); idx >= 0 {
		name = urn[idx+2:]
	}
	return name + ".pages.local"
}

const pageSchema = `{
  "name": "staticpage",
  "version": "0.1.0",
  "resources": {
    "staticpage:index:StaticPage": {
      "isComponent": true,
      "inputProperties": {
        "indexContent": {
          "type": "string",
          "description": "Contents of the page to serve"
        }
      },
      "requiredInputs": ["indexContent"],
      "properties": {
        "bucket": {"type": "string"},
        "endpoint": {"type": "string"},
        "indexContent": {"type": "string"}
      },
      "methods": {
        "getURL": "staticpage:index:StaticPage/getURL"
      }
    }
  }
}`

func main() {
	provider.Main("staticpage", &PageProvider{})
}
