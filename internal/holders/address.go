package holders

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// addressLen is the decoded size of a Solana account address.
const addressLen = 32

// ValidAddress reports whether addr is a base58 encoded 32-byte address.
func ValidAddress(addr string) bool {
	decoded, err := base58.Decode(addr)
	return err == nil && len(decoded) == addressLen
}

// IsOffCurve reports whether addr is a valid address that is not an ed25519
// public key. Program derived addresses (pool vaults, AMM authorities) are
// off-curve; wallets are not.
func IsOffCurve(addr string) bool {
	decoded, err := base58.Decode(addr)
	if err != nil || len(decoded) != addressLen {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err != nil
}
