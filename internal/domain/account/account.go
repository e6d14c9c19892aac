package account

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Length is the byte length of a ledger account.
const Length = 20

var (
	ErrMalformed   = errors.New("account must be 0x followed by 40 hex characters")
	ErrBadChecksum = errors.New("account checksum mismatch")
)

// Account is a canonical ledger address. The zero value is the zero account,
// which the ledger uses to encode "not found".
type Account struct {
	addr [Length]byte
}

// Zero is the zero account.
var Zero = Account{}

// LooksLikeLiteral reports whether input uses the raw account prefix and
// should therefore be parsed as an account rather than a handle.
func LooksLikeLiteral(input string) bool {
	return strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X")
}

// Parse parses a raw account literal. All-lowercase and all-uppercase hex are
// accepted as-is; mixed case must carry a valid EIP-55 checksum.
func Parse(input string) (Account, error) {
	s := strings.TrimSpace(input)
	if !LooksLikeLiteral(s) || len(s) != 2+2*Length {
		return Account{}, ErrMalformed
	}
	body := s[2:]
	raw, err := hex.DecodeString(body)
	if err != nil {
		return Account{}, ErrMalformed
	}
	var a Account
	copy(a.addr[:], raw)
	if isMixedCase(body) && a.Hex()[2:] != body {
		return Account{}, ErrBadChecksum
	}
	return a, nil
}

// MustParse is Parse that panics on error. Intended for constants and tests.
func MustParse(input string) Account {
	a, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return a
}

// FromBytes builds an account from a 20-byte slice.
func FromBytes(b []byte) (Account, error) {
	if len(b) != Length {
		return Account{}, ErrMalformed
	}
	var a Account
	copy(a.addr[:], b)
	return a, nil
}

// Bytes returns a copy of the raw account bytes.
func (a Account) Bytes() []byte {
	out := make([]byte, Length)
	copy(out, a.addr[:])
	return out
}

// IsZero reports whether a is the zero account.
func (a Account) IsZero() bool {
	return a == Zero
}

// Equal compares canonical forms.
func (a Account) Equal(other Account) bool {
	return a == other
}

// Hex returns the EIP-55 checksummed form.
func (a Account) Hex() string {
	lower := hex.EncodeToString(a.addr[:])
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := make([]byte, 0, 2+len(lower))
	out = append(out, '0', 'x')
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			} else {
				nibble &= 0x0f
			}
			if nibble >= 8 {
				c -= 'a' - 'A'
			}
		}
		out = append(out, c)
	}
	return string(out)
}

func (a Account) String() string {
	return a.Hex()
}

// Short renders 0x1234…abcd for display.
func (a Account) Short() string {
	h := a.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}

func (a Account) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Account) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
