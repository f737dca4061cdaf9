// Package hdkey implements public-key-only hierarchical derivation over
// secp256k1 with arbitrary byte-string indices.
//
// A child is derived as
//
//	I     = HMAC-SHA512(key = chainCode, data = ser_P(parent) || index)
//	child = parent + I[:32]·G
//	code  = I[32:]
//
// If I[:32] is not a valid scalar, or the child is the point at infinity, the
// step is retried with data = 0x01 || I[32:] || index, as in SLIP-10. No
// private key material is involved at any point.
package hdkey

import (
	"crypto/hmac"
	"crypto/sha512"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/klingon-exchange/forwarding-address/internal/derivation"
	"github.com/klingon-exchange/forwarding-address/internal/errs"
)

// ChainCodeSize is the length of a chain code in bytes.
const ChainCodeSize = 32

// maxDeriveAttempts bounds the SLIP-10 retry loop of a single step. Each
// retry has probability below 2^-127, so reaching the bound means the
// inputs are broken.
const maxDeriveAttempts = 8

// ChainCode is the auxiliary 32-byte value carried alongside each key.
type ChainCode [ChainCodeSize]byte

// DeriveChild derives the child of parent at index.
func DeriveChild(parent *btcec.PublicKey, chainCode []byte, index []byte) (*btcec.PublicKey, ChainCode, error) {
	var code ChainCode
	if parent == nil {
		return nil, code, fmt.Errorf("%w: nil parent public key", errs.ErrInvalidInput)
	}
	if len(chainCode) != ChainCodeSize {
		return nil, code, fmt.Errorf("%w: chain code must be %d bytes, got %d",
			errs.ErrInvalidInput, ChainCodeSize, len(chainCode))
	}

	var parentPoint secp256k1.JacobianPoint
	parent.AsJacobian(&parentPoint)

	data := parent.SerializeCompressed()
	for attempt := 0; attempt < maxDeriveAttempts; attempt++ {
		mac := hmac.New(sha512.New, chainCode)
		mac.Write(data)
		mac.Write(index)
		sum := mac.Sum(nil)
		il, ir := sum[:32], sum[32:]
		copy(code[:], ir)

		var tweak secp256k1.ModNScalar
		if overflow := tweak.SetByteSlice(il); overflow || tweak.IsZero() {
			data = retryData(ir)
			continue
		}

		var tweakPoint, child secp256k1.JacobianPoint
		secp256k1.ScalarBaseMultNonConst(&tweak, &tweakPoint)
		secp256k1.AddNonConst(&parentPoint, &tweakPoint, &child)
		if isInfinity(&child) {
			data = retryData(ir)
			continue
		}

		child.ToAffine()
		return btcec.NewPublicKey(&child.X, &child.Y), code, nil
	}

	return nil, ChainCode{}, fmt.Errorf("%w: no valid child after %d attempts for index %x",
		errs.ErrDerivation, maxDeriveAttempts, index)
}

// DerivePath folds DeriveChild over path, left to right. An empty path
// returns the root key and chain code unchanged.
func DerivePath(root *btcec.PublicKey, chainCode []byte, path derivation.Path) (*btcec.PublicKey, ChainCode, error) {
	var code ChainCode
	if root == nil {
		return nil, code, fmt.Errorf("%w: nil root public key", errs.ErrInvalidInput)
	}
	if len(chainCode) != ChainCodeSize {
		return nil, code, fmt.Errorf("%w: chain code must be %d bytes, got %d",
			errs.ErrInvalidInput, ChainCodeSize, len(chainCode))
	}
	copy(code[:], chainCode)

	key := root
	for i, idx := range path {
		child, next, err := DeriveChild(key, code[:], idx)
		if err != nil {
			return nil, ChainCode{}, fmt.Errorf("step %d: %w", i, err)
		}
		key, code = child, next
	}
	return key, code, nil
}

func retryData(ir []byte) []byte {
	data := make([]byte, 1+len(ir))
	data[0] = 0x01
	copy(data[1:], ir)
	return data
}

func isInfinity(p *secp256k1.JacobianPoint) bool {
	z := p.Z
	z.Normalize()
	return z.IsZero()
}
