package main

import (
	"strings"
	"testing"
)

func TestFormatResponseJSON(t *testing.T) {
	resp := &MethodsResponse{
		Query:   "placeOrder",
		Matches: []string{"com.shop.OrderService.placeOrder(long)"},
	}

	out, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("FormatResponse failed: %v", err)
	}
	if !strings.Contains(out, `"query": "placeOrder"`) {
		t.Errorf("JSON output missing query field: %s", out)
	}
	if !strings.Contains(out, "com.shop.OrderService.placeOrder(long)") {
		t.Errorf("JSON output missing match: %s", out)
	}
}

func TestFormatResponseYAML(t *testing.T) {
	resp := &MethodsResponse{Query: "settle", Matches: []string{"a.B.settle()"}}

	out, err := FormatResponse(resp, FormatYAML)
	if err != nil {
		t.Fatalf("FormatResponse failed: %v", err)
	}
	if !strings.Contains(out, "query: settle") {
		t.Errorf("YAML output missing query field: %s", out)
	}
}

func TestFormatResponseHuman(t *testing.T) {
	resp := &MethodsResponse{Query: "settle", Matches: []string{"a.B.settle()", "a.C.settle(int)"}}

	out, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse failed: %v", err)
	}
	if !strings.Contains(out, `2 methods match "settle"`) {
		t.Errorf("human output missing header: %s", out)
	}

	empty := &MethodsResponse{Query: "nothing"}
	out, err = FormatResponse(empty, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse failed: %v", err)
	}
	if !strings.Contains(out, "No methods match") {
		t.Errorf("human output should report empty match set: %s", out)
	}
}

func TestFormatResponseUnsupported(t *testing.T) {
	if _, err := FormatResponse(&MethodsResponse{}, OutputFormat("xml")); err == nil {
		t.Error("unsupported format should fail")
	}
}
