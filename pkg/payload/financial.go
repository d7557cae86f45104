// Package payload: money and date families.
package payload

import "github.com/blackcoderx/contractfuzz/pkg/contract"

func genMoney(_ contract.Constraints) []Payload {
	return []Payload{
		valid(f64(0.01), contract.TypeMoney, "minimum unit"),
		valid(f64(1000000.00), contract.TypeMoney, "large ordinary amount"),
		boundary(f64(-1.00), contract.TypeMoney, true, "negative amount"),
		boundary(f64(0.0001), contract.TypeMoney, true, "fractional micro amount"),
		boundary(str("NaN"), contract.TypeMoney, true, "NaN literal"),
		boundary(str("Infinity"), contract.TypeMoney, true, "Infinity literal"),
		boundary(str("1e10"), contract.TypeMoney, true, "scientific notation"),
		boundary(str("$100.00"), contract.TypeMoney, true, "currency-prefixed string"),
	}
}

func genDate(_ contract.Constraints) []Payload {
	return []Payload{
		valid(str("2024-07-30"), contract.TypeDate, "fixed ISO-8601 date"),
		boundary(str("2024-02-29"), contract.TypeDate, false, "leap-year edge"),
		boundary(str("0000-00-00"), contract.TypeDate, true, "zero date"),
		boundary(str("2024-13-01"), contract.TypeDate, true, "month 13"),
		boundary(str("2024-01-32"), contract.TypeDate, true, "day 32"),
		valid(str("1970-01-01"), contract.TypeDate, "epoch"),
		boundary(str("not-a-date"), contract.TypeDate, true, "malformed date"),
	}
}
