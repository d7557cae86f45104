package payload

import (
	"strings"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
)

// Mutate applies an intensity-ladder of transformations to a seed value:
// low intensity flips case/doubles/increments, mid intensity adds sign
// flips and scale-ups, high intensity appends known injection/traversal
// suffixes. Every result carries category=mutation and inherits malicious
// from the transform that produced it.
func Mutate(seed contract.Value, tag contract.TypeTag, intensity float64) []Payload {
	var out []Payload

	if intensity >= 0 {
		out = append(out, lowIntensity(seed, tag)...)
	}
	if intensity >= 0.34 {
		out = append(out, midIntensity(seed, tag)...)
	}
	if intensity >= 0.67 {
		out = append(out, highIntensity(seed, tag)...)
	}
	return out
}

func mutation(v contract.Value, tag contract.TypeTag, malicious bool, desc string) Payload {
	return Payload{Value: v, TypeTag: tag, Category: CategoryMutation, Malicious: malicious, Description: desc}
}

func lowIntensity(seed contract.Value, tag contract.TypeTag) []Payload {
	var out []Payload
	switch seed.Kind {
	case contract.KindString:
		out = append(out,
			mutation(str(strings.ToUpper(seed.Str)), tag, false, "case-flipped"),
			mutation(str(seed.Str+seed.Str), tag, false, "doubled"),
		)
	case contract.KindInt:
		out = append(out, mutation(i64(seed.Int+1), tag, false, "incremented"))
	case contract.KindFloat:
		out = append(out, mutation(f64(seed.Float+1), tag, false, "incremented"))
	}
	return out
}

func midIntensity(seed contract.Value, tag contract.TypeTag) []Payload {
	var out []Payload
	switch seed.Kind {
	case contract.KindInt:
		out = append(out, mutation(i64(-seed.Int), tag, false, "sign-flipped"))
		out = append(out, mutation(i64(seed.Int*1000), tag, true, "scaled up"))
	case contract.KindFloat:
		out = append(out, mutation(f64(-seed.Float), tag, false, "sign-flipped"))
		out = append(out, mutation(f64(seed.Float*1000), tag, true, "scaled up"))
	case contract.KindString:
		if tag == contract.TypeEmail {
			at := strings.IndexByte(seed.Str, '@')
			if at >= 0 {
				dup := seed.Str[:at] + "+" + seed.Str[:at] + seed.Str[at:]
				out = append(out, mutation(str(dup), tag, false, "local-part duplicated"))
			}
		}
	}
	return out
}

func highIntensity(seed contract.Value, tag contract.TypeTag) []Payload {
	var out []Payload
	if seed.Kind != contract.KindString {
		return out
	}
	for _, suffix := range []string{"' OR '1'='1", "../../../etc/passwd", "<script>alert(1)</script>"} {
		out = append(out, mutation(str(seed.Str+suffix), tag, true, "injection suffix appended: "+suffix))
	}
	return out
}
