package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the byte length of a Solana address.
const PublicKeyLength = 32

// ErrInvalidAddress is returned when a string is not a well-formed address.
var ErrInvalidAddress = errors.New("invalid solana address")

// ValidateAddress checks that addr is base58 and decodes to 32 bytes.
func ValidateAddress(addr string) error {
	_, err := decodeAddress(addr)
	return err
}

// IsOnCurve reports whether addr is a valid ed25519 point, i.e. an address
// that can be controlled by a keypair. Program derived addresses are not.
func IsOnCurve(addr string) bool {
	b, err := decodeAddress(addr)
	if err != nil {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(b)
	return err == nil
}

func decodeAddress(addr string) ([]byte, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	b, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(b) != PublicKeyLength {
		return nil, fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(b))
	}
	return b, nil
}
