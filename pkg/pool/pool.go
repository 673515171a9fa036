package pool

import (
	"crypto/ed25519"
	"math"

	"github.com/pkg/errors"
)

const (
	// Mint is the staking token's mint address.
	Mint = "GMWhFAjvmkEkSoU8MepbbeTdWhSZJr3nTY3VM3SATd91"

	// Authority is the fixed recipient wallet that custodies pool deposits.
	Authority = "2PJEwHZEEJWiXwWyk7hbQDY3tGyWtdrymAqKJhkWupF1"

	Decimals = 9
)

var (
	TokenMint = ed25519.PublicKey{228, 32, 126, 186, 224, 153, 166, 186, 161, 59, 114, 157, 29, 192, 93, 249, 23, 153, 144, 160, 55, 155, 197, 210, 197, 219, 13, 59, 210, 68, 127, 160}

	AuthorityAccount = ed25519.PublicKey{20, 145, 245, 87, 141, 166, 45, 221, 110, 73, 205, 177, 255, 176, 196, 212, 92, 132, 73, 43, 21, 84, 50, 162, 56, 90, 34, 191, 121, 166, 156, 24}
)

// ErrAmountNotRepresentable indicates the provided token amount has more
// precision than the mint's decimal configuration can express.
var ErrAmountNotRepresentable = errors.New("amount not representable in raw units")

// ToRawAmount converts a decimal token amount into the mint's minimal units.
//
// The conversion is round(amount * 10^decimals). Inputs representable at the
// mint's precision convert exactly (1.5 at 6 decimals is 1500000).
func ToRawAmount(amount float64, decimals uint8) (uint64, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrAmountNotRepresentable
	}

	raw := math.Round(amount * math.Pow10(int(decimals)))
	if raw > math.MaxUint64 {
		return 0, ErrAmountNotRepresentable
	}

	return uint64(raw), nil
}

// FromRawAmount converts minimal units back into a decimal token amount for
// display.
func FromRawAmount(raw uint64, decimals uint8) float64 {
	return float64(raw) / math.Pow10(int(decimals))
}
