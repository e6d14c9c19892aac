package amount

import (
	"errors"
	"math/big"
	"strings"
)

// Decimals is the fixed token precision of the ledger.
const Decimals = 6

var (
	ErrEmpty       = errors.New("amount is required")
	ErrMalformed   = errors.New("amount must be a non-negative decimal number")
	ErrTooPrecise  = errors.New("amount supports at most 6 decimal places")
	ErrOutOfRange  = errors.New("amount exceeds the ledger maximum")
	ErrNotPositive = errors.New("amount must be greater than zero")
)

var (
	scale    = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)
	maxUnits = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// Amount is a token quantity held as integer base units (value * 10^6).
// The zero value is zero.
type Amount struct {
	units *big.Int
}

// Parse parses a user-supplied decimal string.
func Parse(input string) (Amount, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Amount{}, ErrEmpty
	}
	whole, frac, _ := strings.Cut(s, ".")
	if (whole == "" && frac == "") || !digitsOnly(whole) || !digitsOnly(frac) {
		return Amount{}, ErrMalformed
	}
	if len(frac) > Decimals {
		return Amount{}, ErrTooPrecise
	}
	frac += strings.Repeat("0", Decimals-len(frac))
	units := new(big.Int)
	if digits := strings.TrimLeft(whole+frac, "0"); digits != "" {
		if _, ok := units.SetString(digits, 10); !ok {
			return Amount{}, ErrMalformed
		}
	}
	if units.Cmp(maxUnits) > 0 {
		return Amount{}, ErrOutOfRange
	}
	return Amount{units: units}, nil
}

// ParsePositive parses input and rejects zero.
func ParsePositive(input string) (Amount, error) {
	a, err := Parse(input)
	if err != nil {
		return Amount{}, err
	}
	if !a.IsPositive() {
		return Amount{}, ErrNotPositive
	}
	return a, nil
}

// FromUnits wraps base units. Negative values are clamped to zero.
func FromUnits(units *big.Int) Amount {
	if units == nil || units.Sign() <= 0 {
		return Amount{}
	}
	return Amount{units: new(big.Int).Set(units)}
}

// ParseUnits parses a base-unit integer string as returned by the ledger.
func ParseUnits(s string) (Amount, error) {
	units, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || units.Sign() < 0 {
		return Amount{}, ErrMalformed
	}
	return FromUnits(units), nil
}

// Units returns a copy of the base units.
func (a Amount) Units() *big.Int {
	if a.units == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.units)
}

func (a Amount) IsZero() bool {
	return a.units == nil || a.units.Sign() == 0
}

func (a Amount) IsPositive() bool {
	return a.units != nil && a.units.Sign() > 0
}

// Cmp compares base units.
func (a Amount) Cmp(other Amount) int {
	return a.Units().Cmp(other.Units())
}

// UnitsString is the base-unit integer in decimal.
func (a Amount) UnitsString() string {
	return a.Units().String()
}

// String renders the decimal form without trailing zeros.
func (a Amount) String() string {
	q, r := new(big.Int).QuoRem(a.Units(), scale, new(big.Int))
	if r.Sign() == 0 {
		return q.String()
	}
	frac := r.String()
	frac = strings.Repeat("0", Decimals-len(frac)) + frac
	return q.String() + "." + strings.TrimRight(frac, "0")
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
