package identity

import (
	"errors"
	"regexp"
	"strings"

	"github.com/handlepay/handlepay/internal/domain/account"
)

// Kind distinguishes how a resolved identifier was written. It only affects
// display formatting.
type Kind string

const (
	KindHandle  Kind = "handle"
	KindAddress Kind = "address"
)

const (
	HandleMinLength = 3
	HandleMaxLength = 20
)

var (
	ErrEmpty            = errors.New("identifier is required")
	ErrHandleLength     = errors.New("handle must be 3-20 characters")
	ErrHandleCharacters = errors.New("handle may only contain lowercase letters, digits and underscore")
	ErrHandleUnderscore = errors.New("handle cannot start or end with an underscore")
	ErrHandleReserved   = errors.New("handle cannot start with 0x")
	ErrAccountMalformed = errors.New("account address is malformed")
	ErrAccountChecksum  = errors.New("account address checksum is invalid")
	ErrHandleRequired   = errors.New("a handle is required here, not an address")
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Identifier is a parsed, normalized user-supplied recipient reference.
type Identifier struct {
	Kind    Kind            `json:"kind"`
	Handle  string          `json:"handle,omitempty"`
	Account account.Account `json:"account,omitempty"`
}

// NormalizeHandle strips decoration (surrounding space, a leading @) and
// lowercases. It does not validate.
func NormalizeHandle(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(s)
}

// ValidateHandle checks an already-normalized handle.
func ValidateHandle(handle string) error {
	if handle == "" {
		return ErrEmpty
	}
	if len(handle) < HandleMinLength || len(handle) > HandleMaxLength {
		return ErrHandleLength
	}
	if !handlePattern.MatchString(handle) {
		return ErrHandleCharacters
	}
	if strings.HasPrefix(handle, "_") || strings.HasSuffix(handle, "_") {
		return ErrHandleUnderscore
	}
	if account.LooksLikeLiteral(handle) {
		return ErrHandleReserved
	}
	return nil
}

// Parse normalizes and format-checks input. It never touches the ledger.
func Parse(input string) (Identifier, error) {
	s := strings.TrimSpace(input)
	if s == "" || s == "@" {
		return Identifier{}, ErrEmpty
	}
	if account.LooksLikeLiteral(s) {
		a, err := account.Parse(s)
		if err != nil {
			if errors.Is(err, account.ErrBadChecksum) {
				return Identifier{}, ErrAccountChecksum
			}
			return Identifier{}, ErrAccountMalformed
		}
		return Identifier{Kind: KindAddress, Account: a}, nil
	}
	h := NormalizeHandle(s)
	if err := ValidateHandle(h); err != nil {
		return Identifier{}, err
	}
	return Identifier{Kind: KindHandle, Handle: h}, nil
}

// ParseHandle is Parse restricted to handles.
func ParseHandle(input string) (Identifier, error) {
	id, err := Parse(input)
	if err != nil {
		return Identifier{}, err
	}
	if id.Kind != KindHandle {
		return Identifier{}, ErrHandleRequired
	}
	return id, nil
}

// Normalized is the canonical lookup key: the bare handle or checksummed hex.
func (i Identifier) Normalized() string {
	if i.Kind == KindAddress {
		return i.Account.Hex()
	}
	return i.Handle
}

// Display is the user-facing rendering.
func (i Identifier) Display() string {
	if i.Kind == KindAddress {
		return i.Account.Hex()
	}
	return "@" + i.Handle
}

// Reason returns a short machine reason for a Parse error.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrEmpty):
		return "empty"
	case errors.Is(err, ErrHandleLength):
		return "handle_length"
	case errors.Is(err, ErrHandleCharacters):
		return "handle_characters"
	case errors.Is(err, ErrHandleUnderscore):
		return "handle_underscore"
	case errors.Is(err, ErrHandleReserved):
		return "handle_reserved"
	case errors.Is(err, ErrAccountChecksum):
		return "account_checksum"
	case errors.Is(err, ErrAccountMalformed):
		return "account_malformed"
	case errors.Is(err, ErrHandleRequired):
		return "handle_required"
	default:
		return "malformed"
	}
}
