package payload

import (
	"testing"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
)

func TestGenerateDeterminism(t *testing.T) {
	c := contract.Constraints{}
	first := Generate(contract.TypeString, c)
	second := Generate(contract.TypeString, c)

	if len(first) != len(second) {
		t.Fatalf("non-deterministic payload count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Value.Str != second[i].Value.Str || first[i].Category != second[i].Category {
			t.Fatalf("payload %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestStringMaxLengthBoundary(t *testing.T) {
	maxLen := 10
	c := contract.Constraints{MaxLength: &maxLen}
	payloads := Generate(contract.TypeString, c)

	var atMax, overMax *Payload
	for i := range payloads {
		p := &payloads[i]
		if p.Value.Kind != contract.KindString {
			continue
		}
		switch len(p.Value.Str) {
		case maxLen:
			atMax = p
		case maxLen + 1:
			overMax = p
		}
	}

	if atMax == nil || overMax == nil {
		t.Fatalf("expected both max-length and max-length+1 payloads")
	}
	if atMax.Malicious {
		t.Errorf("payload at exactly max_length must not be malicious by size")
	}
	if !overMax.Malicious {
		t.Errorf("payload at max_length+1 must be malicious")
	}
}

func TestMarkingRuleInjectionPatterns(t *testing.T) {
	payloads := Generate(contract.TypeString, contract.Constraints{})
	found := false
	for _, p := range payloads {
		if p.Category == CategoryInjection {
			found = true
			if !p.Malicious {
				t.Errorf("injection category payload must be malicious: %+v", p)
			}
		}
	}
	if !found {
		t.Fatalf("expected at least one injection-category payload")
	}
}

func TestValidCategoryRespectsTypeTag(t *testing.T) {
	payloads := Generate(contract.TypeEmail, contract.Constraints{})
	for _, p := range payloads {
		if p.Category != CategoryValid {
			continue
		}
		if p.Value.Kind != contract.KindString {
			t.Errorf("valid email payload must be a string: %+v", p)
		}
	}
}

func TestMutateInheritsMaliciousAndCategory(t *testing.T) {
	seed := str("base")
	muts := Mutate(seed, contract.TypeString, 1.0)
	if len(muts) == 0 {
		t.Fatalf("expected mutations at high intensity")
	}
	sawMalicious := false
	for _, m := range muts {
		if m.Category != CategoryMutation {
			t.Errorf("mutation payload must carry category=mutation: %+v", m)
		}
		if m.Malicious {
			sawMalicious = true
		}
	}
	if !sawMalicious {
		t.Errorf("high-intensity mutation should include at least one malicious suffix")
	}
}

func TestEnumCoversAllMembersPlusOutOfEnum(t *testing.T) {
	c := contract.Constraints{EnumMembers: []string{"gold", "silver"}}
	payloads := Generate(contract.TypeEnum, c)

	seen := map[string]bool{}
	for _, p := range payloads {
		seen[p.Value.Str] = true
	}
	for _, m := range c.EnumMembers {
		if !seen[m] {
			t.Errorf("expected enum member %q to be covered", m)
		}
	}
	if !seen["__not_a_member__"] {
		t.Errorf("expected an out-of-enum payload")
	}
}
