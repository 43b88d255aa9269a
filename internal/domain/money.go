package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in minor currency units (halalas).
type Money int64

// ParseMoney reads a decimal amount such as "1500", "-1500.5" or "1,500.25".
// Only one leading sign and at most two decimals are accepted.
func ParseMoney(value string) (Money, error) {
	raw := value
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if value == "" {
		return 0, fmt.Errorf("empty amount")
	}
	negative := false
	switch value[0] {
	case '-':
		negative = true
		value = value[1:]
	case '+':
		value = value[1:]
	}

	whole, frac, hasDot := strings.Cut(value, ".")
	if !isDigits(whole) || (hasDot && !isDigits(frac)) {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q: more than two decimals", raw)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	cents, _ := strconv.ParseInt(frac, 10, 64)
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("invalid amount %q: out of range", raw)
	}
	m := Money(units*100 + cents)
	if negative {
		m = -m
	}
	return m, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String formats the amount with two decimals.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Float returns the amount in major units, for spreadsheets and documents.
func (m Money) Float() float64 {
	return float64(m) / 100
}

// MulDiv returns m*num/den rounded half away from zero.
func (m Money) MulDiv(num, den int64) Money {
	if den == 0 {
		return 0
	}
	product := int64(m) * num
	q := product / den
	r := product % den
	if r < 0 {
		r = -r
	}
	if 2*r >= abs64(den) {
		if (product < 0) != (den < 0) {
			q--
		} else {
			q++
		}
	}
	return Money(q)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
