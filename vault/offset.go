package vault

import "github.com/satlayer/satlayer-restaking/library/num"

// VirtualShares and VirtualAssets offset both sides of every conversion so
// the exchange rate is defined for an empty vault. A donation to an empty
// vault cannot round the next depositor's shares down to zero unless the
// donation is at least as large as the deposit.
const (
	VirtualShares = 1
	VirtualAssets = 1
)

var (
	virtualShares = num.NewUint128(VirtualShares)
	virtualAssets = num.NewUint128(VirtualAssets)
)

// AssetsToShares returns floor(assets * (totalShares + VirtualShares) / (totalAssets + VirtualAssets)).
func AssetsToShares(assets, totalShares, totalAssets num.Uint128) (num.Uint128, error) {
	shares, err := totalShares.CheckedAdd(virtualShares)
	if err != nil {
		return num.Uint128{}, err
	}
	balance, err := totalAssets.CheckedAdd(virtualAssets)
	if err != nil {
		return num.Uint128{}, err
	}
	return assets.MulDivFloor(shares, balance)
}

// SharesToAssets returns floor(shares * (totalAssets + VirtualAssets) / (totalShares + VirtualShares)).
func SharesToAssets(shares, totalShares, totalAssets num.Uint128) (num.Uint128, error) {
	supply, err := totalShares.CheckedAdd(virtualShares)
	if err != nil {
		return num.Uint128{}, err
	}
	balance, err := totalAssets.CheckedAdd(virtualAssets)
	if err != nil {
		return num.Uint128{}, err
	}
	return shares.MulDivFloor(balance, supply)
}
