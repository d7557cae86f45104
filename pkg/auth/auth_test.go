package auth

import (
	"context"
	"errors"
	"testing"
)

func TestStaticResolverInvokesFnWithConfiguredContext(t *testing.T) {
	r := NewStaticResolver(map[string]Context{"admin": BearerContext("abc123")})

	var got Context
	err := r.WithRole(context.Background(), "admin", func(c Context) error {
		got = c
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Headers["Authorization"] != "Bearer abc123" {
		t.Errorf("expected Authorization header, got %+v", got.Headers)
	}
}

func TestStaticResolverUnknownRole(t *testing.T) {
	r := NewStaticResolver(map[string]Context{})

	err := r.WithRole(context.Background(), "missing", func(Context) error { return nil })
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestBasicContextEncodesUserPass(t *testing.T) {
	c := BasicContext("admin", "secret123")
	want := "Basic YWRtaW46c2VjcmV0MTIz"
	if c.Headers["Authorization"] != want {
		t.Errorf("expected %q, got %q", want, c.Headers["Authorization"])
	}
}
