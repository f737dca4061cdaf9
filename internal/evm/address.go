// Package evm encodes secp256k1 public keys as EVM (Ethereum-style) addresses.
package evm

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/klingon-exchange/forwarding-address/internal/errs"
)

// Keccak256 computes the Keccak-256 hash (used by Ethereum). This is the
// original Keccak padding, not FIPS-202 SHA3-256.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// PublicKeyToAddress converts a secp256k1 public key to an EVM address.
// Address = last 20 bytes of Keccak256(uncompressed pubkey without 0x04 prefix)
func PublicKeyToAddress(pubKey *btcec.PublicKey) common.Address {
	// 65 bytes starting with 0x04
	pubKeyBytes := pubKey.SerializeUncompressed()
	hash := Keccak256(pubKeyBytes[1:])
	return common.BytesToAddress(hash[len(hash)-common.AddressLength:])
}

// FormatAddress renders addr as 0x-prefixed hex, EIP-55 mixed case unless
// lowercase is set.
func FormatAddress(addr common.Address, lowercase bool) string {
	if lowercase {
		return "0x" + hex.EncodeToString(addr[:])
	}
	return addr.Hex()
}

// ValidateAddress checks if an EVM address is well formed: 0x followed by 40
// hex characters. Checksum casing is not checked.
func ValidateAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return false
	}
	address = address[2:]
	if len(address) != 2*common.AddressLength {
		return false
	}
	_, err := hex.DecodeString(address)
	return err == nil
}

// IsChecksumValid checks if an EVM address has valid EIP-55 checksum.
func IsChecksumValid(address string) bool {
	if !ValidateAddress(address) {
		return false
	}
	body := address[2:]

	// If all lowercase or all uppercase, checksum doesn't apply
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(body).Hex() == "0x"+body
}

// ParseAddress parses a 0x-prefixed address, rejecting mixed-case input whose
// EIP-55 checksum does not match.
func ParseAddress(address string) (common.Address, error) {
	address = strings.TrimSpace(address)
	if !ValidateAddress(address) {
		return common.Address{}, fmt.Errorf("%w: malformed EVM address %q", errs.ErrInvalidInput, address)
	}
	if !IsChecksumValid(address) {
		return common.Address{}, fmt.Errorf("%w: bad EIP-55 checksum in %q", errs.ErrInvalidInput, address)
	}
	return common.HexToAddress(address), nil
}
