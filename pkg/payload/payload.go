// Package payload implements the semantic generator (component A): it turns
// a parameter's declared type and constraints into typed, meaningful inputs
// rather than random bytes. The category taxonomy and the base injection
// strings are generalized from blackcoderx/falcon's
// security_scanner.Fuzzer — which hard-coded one payload list per attack
// family inline in FuzzEndpoints — into data tables driven by TypeTag, so
// the same machinery covers boundary, injection, and mutation generation
// for every declared type instead of one copy-pasted function per family.
package payload

import (
	"fmt"
	"strings"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
)

// Category classifies why a payload exists.
type Category string

const (
	CategoryValid          Category = "valid"
	CategoryBoundary       Category = "boundary"
	CategoryInjection      Category = "injection"
	CategoryUnicode        Category = "unicode"
	CategoryMutation       Category = "mutation"
	CategoryNull           Category = "null"
	CategoryCustomBoundary Category = "custom_boundary"
	CategoryAttack         Category = "attack"
	CategoryUpload         Category = "upload"
	CategoryNavigation     Category = "navigation"
)

// Payload is one concrete input plus the metadata the orchestrator and
// validator need to interpret it.
type Payload struct {
	Value       contract.Value
	TypeTag     contract.TypeTag
	Category    Category
	Boundary    bool
	Malicious   bool
	Description string
}

// injectionPatterns is the fixed family of string-injection payloads every
// "string" generation pass includes. Grounded on the
// sqlPayloads/xssPayloads/cmdPayloads/pathPayloads literals spread across
// security_scanner/fuzzer.go, merged into one table since a value is
// malicious iff it contains any pattern on this list, regardless of which
// vulnerability class it targets.
var injectionPatterns = []string{
	"'",
	"';--",
	"' OR '1'='1",
	"1' UNION SELECT NULL--",
	"<script>alert('xss')</script>",
	"javascript:alert(1)",
	"<img src=x onerror=alert(1)>",
	"{{7*7}}",
	"${7*7}",
	"../../../etc/passwd",
	"\x00",
	"💣👾🔥",
	"日本語テスト",
}

func isInjectionPattern(s string) bool {
	for _, p := range injectionPatterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func str(s string) contract.Value        { return contract.Value{Kind: contract.KindString, Str: s} }
func i64(v int64) contract.Value         { return contract.Value{Kind: contract.KindInt, Int: v} }
func f64(v float64) contract.Value       { return contract.Value{Kind: contract.KindFloat, Float: v} }
func null() contract.Value               { return contract.Value{Kind: contract.KindNull} }

func valid(v contract.Value, tag contract.TypeTag, desc string) Payload {
	return Payload{Value: v, TypeTag: tag, Category: CategoryValid, Description: desc}
}

func boundary(v contract.Value, tag contract.TypeTag, malicious bool, desc string) Payload {
	return Payload{Value: v, TypeTag: tag, Category: CategoryBoundary, Boundary: true, Malicious: malicious, Description: desc}
}

func injection(v contract.Value, tag contract.TypeTag, desc string) Payload {
	return Payload{Value: v, TypeTag: tag, Category: CategoryInjection, Malicious: true, Description: desc}
}

func nullPayload(tag contract.TypeTag) Payload {
	return Payload{Value: null(), TypeTag: tag, Category: CategoryNull, Description: "null literal"}
}

func customBoundary(v contract.Value, tag contract.TypeTag, desc string) Payload {
	return Payload{Value: v, TypeTag: tag, Category: CategoryCustomBoundary, Boundary: true, Description: desc}
}

// Generate produces the required coverage for one (type_tag, constraints)
// pair. Each family generator sets the category, boundary, and over-limit
// malicious flags on its own payloads; the injection-pattern part of the
// marking rule is then applied uniformly at the end so the families don't
// each have to re-derive it.
func Generate(tag contract.TypeTag, c contract.Constraints) []Payload {
	var out []Payload
	switch tag {
	case contract.TypeString:
		out = genString(c)
	case contract.TypeInteger, contract.TypeNumber:
		out = genNumeric(tag, c)
	case contract.TypeEmail:
		out = genEmail(c)
	case contract.TypeJWT:
		out = genJWT(c)
	case contract.TypeID:
		out = genID(c)
	case contract.TypeCSRF:
		out = genCSRF(c)
	case contract.TypeMoney:
		out = genMoney(c)
	case contract.TypeDate:
		out = genDate(c)
	case contract.TypeFile:
		out = genFile(c)
	case contract.TypePagination:
		out = genPagination(c)
	case contract.TypeEnum:
		out = genEnum(c)
	default:
		out = genOther(c)
	}
	return applyMarkingRule(out, c)
}

// applyMarkingRule runs as a final pass: anything whose string value
// matches the shared injection-pattern table becomes malicious regardless
// of which family produced it. Valid-category payloads are left unmarked.
func applyMarkingRule(payloads []Payload, _ contract.Constraints) []Payload {
	for i := range payloads {
		p := &payloads[i]
		if p.Category == CategoryValid {
			continue
		}
		if p.Value.Kind == contract.KindString && isInjectionPattern(p.Value.Str) {
			p.Malicious = true
		}
	}
	return payloads
}

func genOther(_ contract.Constraints) []Payload {
	return []Payload{
		nullPayload(contract.TypeOther),
		{Value: contract.Value{Kind: contract.KindNull}, TypeTag: contract.TypeOther, Category: CategoryNull, Description: "absent/undefined"},
	}
}

func genFile(c contract.Constraints) []Payload {
	maxLen := 10 * 1024 * 1024
	if c.MaxValue != nil {
		maxLen = int(*c.MaxValue)
	}
	return []Payload{
		valid(str("photo.png"), contract.TypeFile, "ordinary filename"),
		boundary(str("../../../etc/passwd"), contract.TypeFile, true, "path traversal filename"),
		boundary(str("shell.php.png"), contract.TypeFile, true, "disguised executable extension"),
		boundary(str("shell.jpg.exe"), contract.TypeFile, true, "disguised executable extension"),
		boundary(i64(int64(maxLen)+1), contract.TypeFile, true, "oversized declared file size"),
	}
}

func genPagination(_ contract.Constraints) []Payload {
	return []Payload{
		valid(i64(1), contract.TypePagination, "first page"),
		boundary(i64(-1), contract.TypePagination, true, "negative page"),
		boundary(i64(0), contract.TypePagination, true, "zero limit"),
		boundary(i64(1<<31-1), contract.TypePagination, true, "huge page number"),
		boundary(str("abc"), contract.TypePagination, true, "non-numeric page"),
	}
}

func genEnum(c contract.Constraints) []Payload {
	out := make([]Payload, 0, len(c.EnumMembers)+4)
	for _, m := range c.EnumMembers {
		out = append(out, valid(str(m), contract.TypeEnum, fmt.Sprintf("declared enum member %q", m)))
	}
	out = append(out,
		boundary(str(""), contract.TypeEnum, true, "empty string outside enum"),
		boundary(str("null"), contract.TypeEnum, true, "literal \"null\" outside enum"),
		injection(str("<script>alert(1)</script>"), contract.TypeEnum, "script tag outside enum"),
		boundary(str("__not_a_member__"), contract.TypeEnum, true, "out-of-enum string"),
	)
	return out
}
