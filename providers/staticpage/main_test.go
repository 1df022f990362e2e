package main

import (
	"context"
	"strings"
	"testing"

	"github.com/graftlabs/graft/pkg/property"
	"github.com/graftlabs/graft/pkg/provider"
	"github.com/graftlabs/graft/pkg/settings"
)

func TestConstructStaticPage(t *testing.T) {
	p := &PageProvider{}

	store := settings.NewStore()
	store.Reset(settings.Options{Project: "site", Stack: "dev"})
	ctx := settings.NewContext(context.Background(), store.Snapshot())

	result, err := p.Construct(ctx, componentType, "home", map[string]interface{}{
		"indexContent": property.NewString("<h1>hi</h1>"),
	}, &provider.ConstructOptions{})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	urn, ok := result.URN.(string)
	if !ok || !strings.Contains(urn, "home") {
		t.Errorf("urn = %v", result.URN)
	}
	if result.State["bucket"] != "site-home-pages" {
		t.Errorf("bucket = %v", result.State["bucket"])
	}
	if result.State["indexContent"] != "<h1>hi</h1>" {
		t.Errorf("indexContent = %v", result.State["indexContent"])
	}
}

func TestConstructDeferredContent(t *testing.T) {
	p := &PageProvider{}

	out := provider.NewResolvedOutput(property.NewString("deferred"), true, false)
	result, err := p.Construct(context.Background(), componentType, "home", map[string]interface{}{
		"indexContent": out,
	}, &provider.ConstructOptions{})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if result.State["indexContent"] != "deferred" {
		t.Errorf("indexContent = %v", result.State["indexContent"])
	}
}

func TestConstructMissingContent(t *testing.T) {
	p := &PageProvider{}
	_, err := p.Construct(context.Background(), componentType, "home", map[string]interface{}{}, nil)
	if err == nil {
		t.Fatal("missing indexContent should fail")
	}
}

func TestConstructUnknownType(t *testing.T) {
	p := &PageProvider{}
	_, err := p.Construct(context.Background(), "other:index:Thing", "x", nil, nil)
	if err == nil {
		t.Fatal("unknown component type should fail")
	}
}

func TestGetURL(t *testing.T) {
	p := &PageProvider{}
	self := property.NewReference("urn:graft:dev::site::staticpage:index:StaticPage::home", "")

	result, err := p.Call(context.Background(), getURLToken, &provider.CallArgs{
		Self: self,
		Args: map[string]interface{}{"secure": property.NewBool(true)},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got := result.Outputs["url"]; got != "https://home.pages.local/index.html" {
		t.Errorf("url = %v", got)
	}
}

func TestGetURLBadArgReportsFailure(t *testing.T) {
	p := &PageProvider{}
	self := property.NewReference("urn:graft:dev::site::staticpage:index:StaticPage::home", "")

	result, err := p.Call(context.Background(), getURLToken, &provider.CallArgs{
		Self: self,
		Args: map[string]interface{}{"secure": property.NewString("yes")},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(result.Failures) != 1 || result.Failures[0].Property != "secure" {
		t.Errorf("failures = %+v", result.Failures)
	}
}

func TestGetURLWithoutReceiver(t *testing.T) {
	p := &PageProvider{}
	_, err := p.Call(context.Background(), getURLToken, &provider.CallArgs{})
	if err == nil {
		t.Fatal("call without receiver should fail")
	}
}
