package payload

import (
	"strings"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
)

func genString(c contract.Constraints) []Payload {
	minLen, maxLen := 0, 255
	if c.MinLength != nil {
		minLen = *c.MinLength
	}
	if c.MaxLength != nil {
		maxLen = *c.MaxLength
	}

	out := []Payload{
		boundary(str(""), contract.TypeString, minLen > 0, "empty string"),
		valid(str(strings.Repeat("a", minLen)), contract.TypeString, "minimum-length string"),
		valid(str(strings.Repeat("a", maxLen)), contract.TypeString, "maximum-length string"),
		boundary(str(strings.Repeat("a", maxLen+1)), contract.TypeString, true, "over-limit string (max_length+1)"),
	}

	for _, p := range injectionPatterns {
		out = append(out, injection(str(p), contract.TypeString, "injection pattern: "+p))
	}

	return out
}
