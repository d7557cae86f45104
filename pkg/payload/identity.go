// Package payload: email, jwt, id, and csrf families. Grounded on the same
// "each semantic type gets valid/boundary/injection coverage" shape as
// numeric.go and string.go; jwt specifically follows the alg:none confusion
// attack shape security_scanner/auth_audit.go tests for against live
// endpoints (here it's generated as input rather than asserted as a finding).
package payload

import (
	"encoding/base64"
	"encoding/hex"
	"math/rand/v2"
	"strings"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
)

func genEmail(_ contract.Constraints) []Payload {
	return []Payload{
		valid(str("user@example.com"), contract.TypeEmail, "plain RFC address"),
		valid(str("user+tag@example.com"), contract.TypeEmail, "plus-tag address"),
		valid(str("user@mail.sub.example.com"), contract.TypeEmail, "subdomain address"),
		valid(str("üser@exämple.com"), contract.TypeEmail, "unicode local-part address"),
		boundary(str("@x.com"), contract.TypeEmail, true, "missing local part"),
		boundary(str("x@"), contract.TypeEmail, true, "missing domain"),
		boundary(str("x..y@example.com"), contract.TypeEmail, true, "double dot in local part"),
		boundary(str(strings.Repeat("a", 250)+"@example.com"), contract.TypeEmail, true, "over-RFC-length address"),
	}
}

func genJWT(_ contract.Constraints) []Payload {
	valid1 := syntheticJWT(`{"alg":"HS256","typ":"JWT"}`, `{"sub":"1234567890","name":"probe"}`)
	none := syntheticJWT(`{"alg":"none","typ":"JWT"}`, `{"sub":"1234567890","admin":true}`)
	oversized := strings.Repeat("A", 2001)

	return []Payload{
		valid(str(valid1), contract.TypeJWT, "syntactically valid token"),
		injection(str(none), contract.TypeJWT, "none-algorithm variant"),
		boundary(str(""), contract.TypeJWT, true, "empty token"),
		boundary(str("not-a-jwt"), contract.TypeJWT, true, "malformed token"),
		boundary(str(oversized), contract.TypeJWT, true, "oversized token (>2000 chars)"),
	}
}

func syntheticJWT(header, body string) string {
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(header)) + "." + enc([]byte(body)) + "." + enc([]byte("sig"))
}

func genID(_ contract.Constraints) []Payload {
	out := []Payload{
		valid(i64(42), contract.TypeID, "ordinary numeric id"),
		boundary(i64(0), contract.TypeID, true, "zero id"),
		boundary(i64(-1), contract.TypeID, true, "negative id"),
		boundary(i64(i64SafeMax), contract.TypeID, true, "oversized id"),
		boundary(str("not-an-id"), contract.TypeID, true, "non-numeric id"),
	}
	for _, p := range injectionPatterns {
		out = append(out, injection(str(p), contract.TypeID, "injection-laced id: "+p))
	}
	return out
}

func genCSRF(_ contract.Constraints) []Payload {
	return []Payload{
		valid(str(randomHex(32)), contract.TypeCSRF, "random 32-byte hex token"),
		boundary(str(""), contract.TypeCSRF, true, "empty token"),
		boundary(str("not-a-token"), contract.TypeCSRF, true, "invalid literal token"),
		boundary(str(strings.Repeat("a", 10000)), contract.TypeCSRF, true, "oversized token"),
	}
}

// randomHex returns n pseudo-random bytes, hex-encoded, drawn from a
// fixed-seed PCG so that repeated Generate calls yield the same token.
func randomHex(n int) string {
	r := rand.New(rand.NewPCG(0x5eed, uint64(n)))
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(r.Uint64())
	}
	return hex.EncodeToString(b)
}
