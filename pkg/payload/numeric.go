package payload

import (
	"math"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
)

const (
	i32Min = math.MinInt32
	i32Max = math.MaxInt32
	// i64SafeMin/Max are JS/JSON-safe integer bounds, not the true int64
	// range — spec calls these out separately from the i32 edges because
	// many APIs decode numbers through a float64-backed JSON layer.
	i64SafeMin = -(int64(1)<<53 - 1)
	i64SafeMax = int64(1)<<53 - 1
)

func genNumeric(tag contract.TypeTag, c contract.Constraints) []Payload {
	out := []Payload{
		valid(i64(0), tag, "zero"),
		valid(i64(1), tag, "positive one"),
		valid(i64(-1), tag, "negative one"),
		boundary(i64(i32Min), tag, false, "int32 min"),
		boundary(i64(i32Max), tag, false, "int32 max"),
		boundary(i64(i64SafeMin), tag, false, "int64 safe min"),
		boundary(i64(i64SafeMax), tag, false, "int64 safe max"),
	}

	if tag == contract.TypeNumber {
		out = append(out,
			boundary(f64(math.Inf(1)), tag, true, "positive infinity"),
			boundary(f64(math.Inf(-1)), tag, true, "negative infinity"),
			boundary(f64(math.NaN()), tag, true, "NaN"),
		)
	}

	if c.MinValue != nil {
		min := *c.MinValue
		out = append(out,
			boundary(f64(min-1), tag, true, "constraint min-1"),
			boundary(f64(min), tag, false, "constraint min"),
		)
	}
	if c.MaxValue != nil {
		max := *c.MaxValue
		out = append(out,
			boundary(f64(max), tag, false, "constraint max"),
			boundary(f64(max+1), tag, true, "constraint max+1"),
		)
	}
	for _, cb := range c.CustomBoundary {
		out = append(out, customBoundary(str(cb), tag, "user-supplied custom boundary"))
	}

	return out
}
