package transport

import (
	"context"
	"testing"
)

func TestMockRoutesFirstMatchingRule(t *testing.T) {
	m := NewMock().
		Respond(Rule{
			Match:  Contains("DROP TABLE", "' OR '1'='1"),
			Status: 500,
			Body:   []byte("SQL syntax error near DROP TABLE users"),
		}).
		Respond(Rule{Status: 200, Body: []byte(`{"ok":true}`)})

	vuln, err := m.Send(context.Background(), RequestSpec{
		Method: "GET",
		URL:    "https://api.test/vulnerable/sql",
		Body:   []byte("query=' OR '1'='1"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vuln.Status != 500 {
		t.Errorf("expected 500, got %d", vuln.Status)
	}

	clean, err := m.Send(context.Background(), RequestSpec{
		Method: "GET",
		URL:    "https://api.test/vulnerable/sql",
		Body:   []byte("query=alice"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clean.Status != 200 {
		t.Errorf("expected 200 for clean payload, got %d", clean.Status)
	}

	if len(m.Calls()) != 2 {
		t.Errorf("expected 2 recorded calls, got %d", len(m.Calls()))
	}
}

func TestHeaderCaseInsensitive(t *testing.T) {
	h := NewHeader()
	h.Add("Content-Type", "application/json")
	h.Add("X-RateLimit-Remaining", "3")

	if v, ok := h.Get("content-type"); !ok || v != "application/json" {
		t.Errorf("expected case-insensitive lookup to find content-type, got %q, %v", v, ok)
	}
	if v, ok := h.Get("X-RATELIMIT-REMAINING"); !ok || v != "3" {
		t.Errorf("expected case-insensitive lookup to find rate limit header, got %q, %v", v, ok)
	}
	if _, ok := h.Get("missing"); ok {
		t.Errorf("expected missing header to report not found")
	}
}

func TestHeaderPreservesDuplicates(t *testing.T) {
	h := NewHeader()
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")

	vs := h.Values("set-cookie")
	if len(vs) != 2 || vs[0] != "a=1" || vs[1] != "b=2" {
		t.Errorf("expected both cookie values preserved in order, got %v", vs)
	}
}
