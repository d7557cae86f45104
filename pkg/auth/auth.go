// Package auth implements pluggable per-role credentials the orchestrator
// attaches to a request before it is sent.
//
// It generalizes shared.OAuth2Tool/BearerTool/BasicTool — three standalone
// one-shot tools a human agent invoked explicitly — into one Resolver
// interface the orchestrator calls transparently on every request, with
// token refresh happening inside WithRole instead of as a separate manual
// step.
package auth

import (
	"context"
	"encoding/base64"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/blackcoderx/contractfuzz/pkg/ferrors"
)

// Context carries the credential material to attach to one outgoing
// request: a bearer token or API key header, session cookies, and a CSRF
// token where the endpoint requires one.
type Context struct {
	Headers   map[string]string
	Cookies   map[string]string
	CSRFToken string
}

// Resolver supplies a Context for a named auth role and invokes fn with
// it. Implementations refresh expired credentials before calling fn so
// callers never see a stale token.
type Resolver interface {
	WithRole(ctx context.Context, role string, fn func(Context) error) error
}

// ErrUnknownRole is returned by WithRole when no credential is configured
// for the requested role. It wraps ferrors.ErrAuthUnavailable so callers
// can branch on either the specific or the general sentinel; the
// orchestrator treats it as skipped: auth_unavailable.
var ErrUnknownRole = unknownRoleError{}

type unknownRoleError struct{}

func (unknownRoleError) Error() string { return "auth: unknown role" }

func (unknownRoleError) Unwrap() error { return ferrors.ErrAuthUnavailable }

// StaticResolver supplies one fixed Context per role — Bearer tokens,
// Basic auth headers, or API keys configured up front, the way BearerTool
// and BasicTool built one fixed header from caller-supplied values.
type StaticResolver struct {
	byRole map[string]Context
}

// NewStaticResolver builds a StaticResolver from a role->Context map.
func NewStaticResolver(byRole map[string]Context) *StaticResolver {
	return &StaticResolver{byRole: byRole}
}

// WithRole implements Resolver.
func (r *StaticResolver) WithRole(_ context.Context, role string, fn func(Context) error) error {
	authCtx, ok := r.byRole[role]
	if !ok {
		return ErrUnknownRole
	}
	return fn(authCtx)
}

// BearerContext builds a Context carrying an "Authorization: Bearer <token>"
// header, as shared.BearerTool did for one explicit call.
func BearerContext(token string) Context {
	return Context{Headers: map[string]string{"Authorization": "Bearer " + token}}
}

// BasicContext builds a Context carrying an HTTP Basic auth header, the
// same base64(user:pass) encoding as shared.BasicTool.
func BasicContext(username, password string) Context {
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return Context{Headers: map[string]string{"Authorization": "Basic " + encoded}}
}

// OAuth2Resolver obtains and transparently refreshes a client_credentials
// token per role, wrapping clientcredentials.Config the way
// OAuth2Tool.clientCredentialsFlow did for its one-shot flow — except here
// WithRole is called on every request and the wrapped oauth2.TokenSource
// only actually fetches a new token once the cached one has expired.
type OAuth2Resolver struct {
	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
	configs map[string]clientcredentials.Config
}

// NewOAuth2Resolver builds a resolver from one clientcredentials.Config per
// role.
func NewOAuth2Resolver(configs map[string]clientcredentials.Config) *OAuth2Resolver {
	return &OAuth2Resolver{
		sources: make(map[string]oauth2.TokenSource),
		configs: configs,
	}
}

// WithRole implements Resolver.
func (r *OAuth2Resolver) WithRole(ctx context.Context, role string, fn func(Context) error) error {
	cfg, ok := r.configs[role]
	if !ok {
		return ErrUnknownRole
	}

	r.mu.Lock()
	src, ok := r.sources[role]
	if !ok {
		src = cfg.TokenSource(ctx)
		r.sources[role] = src
	}
	r.mu.Unlock()

	tok, err := src.Token()
	if err != nil {
		return err
	}
	return fn(Context{Headers: map[string]string{"Authorization": tok.TokenType + " " + tok.AccessToken}})
}
