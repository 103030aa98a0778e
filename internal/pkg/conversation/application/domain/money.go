package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reAmount      = regexp.MustCompile(`^\$?\s?(\d{1,3}(?:[.,]\d{3})+|\d+)(?:\s?(pesos|clp|lucas|luca|mil))?$`)
	reInlineMoney = regexp.MustCompile(`\$\s?(\d{1,3}(?:[.,]\d{3})+|\d+)`)
)

// ParseAmount reads an input that is only a money amount: "$10.000",
// "10000", "15 lucas". Thousands separators are "." or ",".
func ParseAmount(input string) (decimal.Decimal, bool) {
	text := Fold(input)
	m := reAmount.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, false
	}
	return amount(m[1], m[2])
}

// ExtractAmount finds a "$"-prefixed amount inside text and returns the text
// without it: "clases de piano $20.000" -> ("clases de piano", 20000).
func ExtractAmount(input string) (string, *decimal.Decimal) {
	loc := reInlineMoney.FindStringSubmatchIndex(input)
	if loc == nil {
		return strings.TrimSpace(input), nil
	}
	d, ok := amount(input[loc[2]:loc[3]], "")
	if !ok {
		return strings.TrimSpace(input), nil
	}
	rest := strings.TrimSpace(input[:loc[0]] + " " + input[loc[1]:])
	return strings.Join(strings.Fields(rest), " "), &d
}

func amount(digits, unit string) (decimal.Decimal, bool) {
	digits = strings.NewReplacer(".", "", ",", "").Replace(digits)
	d, err := decimal.NewFromString(digits)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	switch unit {
	case "lucas", "luca", "mil":
		d = d.Mul(decimal.NewFromInt(1000))
	}
	return d, true
}
