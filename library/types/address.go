package types

import (
	"crypto/sha256"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // cosmos address derivation
)

// Bech32Prefix is the human-readable part of every address. Set once at
// start-up from configuration.
var Bech32Prefix = "bbn"

// ValidateAddress checks that addr is a bech32 address with the configured
// prefix and a 20 (account) or 32 (contract) byte payload.
func ValidateAddress(addr string) error {
	if addr == "" {
		return errorsmod.Wrap(ErrInvalidInput, "empty address")
	}
	hrp, bz, err := bech32.DecodeAndConvert(addr)
	if err != nil {
		return errorsmod.Wrapf(ErrInvalidInput, "invalid address %s: %v", addr, err)
	}
	if hrp != Bech32Prefix {
		return errorsmod.Wrapf(ErrInvalidInput, "invalid address prefix %s, expected %s", hrp, Bech32Prefix)
	}
	if len(bz) != 20 && len(bz) != 32 {
		return errorsmod.Wrapf(ErrInvalidInput, "invalid address length %d", len(bz))
	}
	return nil
}

// ContractAddress derives a deterministic 32 byte address for a component
// from its label.
func ContractAddress(label string) string {
	hash := sha256.Sum256([]byte("contract/" + label))
	addr, err := bech32.ConvertAndEncode(Bech32Prefix, hash[:])
	if err != nil {
		panic(err)
	}
	return addr
}

// PubKeyToAddress derives the account address of a compressed secp256k1
// public key: ripemd160(sha256(pubkey)).
func PubKeyToAddress(pubKey []byte) (string, error) {
	sha := sha256.Sum256(pubKey)
	hasher := ripemd160.New()
	hasher.Write(sha[:])
	return bech32.ConvertAndEncode(Bech32Prefix, hasher.Sum(nil))
}

// GenerateAddress derives a 20 byte account address from a seed. Used for
// fixtures and by the CLI for named test accounts.
func GenerateAddress(seed string) string {
	hash := sha256.Sum256([]byte(seed))
	addr, err := bech32.ConvertAndEncode(Bech32Prefix, hash[:20])
	if err != nil {
		panic(err)
	}
	return addr
}
