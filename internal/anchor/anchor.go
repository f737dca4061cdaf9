package anchor

import (
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/klingon-exchange/forwarding-address/internal/errs"
	"github.com/klingon-exchange/forwarding-address/pkg/helpers"
)

// ChainCodeSize is the length of an HD chain code in bytes.
const ChainCodeSize = 32

// pemBlockType is the only PEM block type accepted for root keys.
const pemBlockType = "PUBLIC KEY"

var (
	oidPublicKeyEC = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1   = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// Source is the textual form of a trust anchor.
type Source struct {
	PublicKeyPEM string
	ChainCodeHex string
}

// TrustAnchor is a parsed root public key and chain code. It is never
// mutated after ParseTrustAnchor returns.
type TrustAnchor struct {
	Environment Environment
	PublicKey   *btcec.PublicKey
	ChainCode   [ChainCodeSize]byte
}

// Fingerprint returns the hex-encoded compressed root public key.
func (a *TrustAnchor) Fingerprint() string {
	return hex.EncodeToString(a.PublicKey.SerializeCompressed())
}

// ParseTrustAnchor parses a PEM-encoded secp256k1 public key and a hex chain
// code. Any failure wraps errs.ErrConfiguration.
func ParseTrustAnchor(env Environment, src Source) (*TrustAnchor, error) {
	pubKey, err := ParsePublicKeyPEM(src.PublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %s public key: %v", errs.ErrConfiguration, env, err)
	}

	chainCode, err := helpers.HexToFixed(src.ChainCodeHex, ChainCodeSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %s chain code: %v", errs.ErrConfiguration, env, err)
	}

	a := &TrustAnchor{Environment: env, PublicKey: pubKey}
	copy(a.ChainCode[:], chainCode)
	return a, nil
}

// ParsePublicKeyPEM decodes a single "PUBLIC KEY" PEM block holding a
// SubjectPublicKeyInfo for a secp256k1 key.
func ParsePublicKeyPEM(text string) (*btcec.PublicKey, error) {
	block, rest := pem.Decode([]byte(strings.TrimSpace(text)))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if block.Type != pemBlockType {
		return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
	}
	if len(strings.TrimSpace(string(rest))) != 0 {
		return nil, errors.New("trailing data after PEM block")
	}

	point, err := parseSubjectPublicKeyInfo(block.Bytes)
	if err != nil {
		return nil, err
	}

	pubKey, err := btcec.ParsePubKey(point)
	if err != nil {
		return nil, fmt.Errorf("invalid curve point: %w", err)
	}
	return pubKey, nil
}

// parseSubjectPublicKeyInfo returns the SEC1 encoded point of an
// id-ecPublicKey/secp256k1 SubjectPublicKeyInfo. crypto/x509 only knows the
// NIST curves, so the structure is walked by hand.
func parseSubjectPublicKeyInfo(der []byte) ([]byte, error) {
	var (
		input    = cryptobyte.String(der)
		spki     cryptobyte.String
		algo     cryptobyte.String
		algOID   asn1.ObjectIdentifier
		curveOID asn1.ObjectIdentifier
		key      asn1.BitString
	)

	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, errors.New("malformed SubjectPublicKeyInfo")
	}
	if !spki.ReadASN1(&algo, cbasn1.SEQUENCE) {
		return nil, errors.New("malformed algorithm identifier")
	}
	if !algo.ReadASN1ObjectIdentifier(&algOID) || !algOID.Equal(oidPublicKeyEC) {
		return nil, fmt.Errorf("unsupported key algorithm %v", algOID)
	}
	if !algo.ReadASN1ObjectIdentifier(&curveOID) || !curveOID.Equal(oidSecp256k1) {
		return nil, fmt.Errorf("unsupported curve %v", curveOID)
	}
	if !algo.Empty() {
		return nil, errors.New("trailing data in algorithm identifier")
	}
	if !spki.ReadASN1BitString(&key) || !spki.Empty() {
		return nil, errors.New("malformed subject public key")
	}
	if key.BitLength%8 != 0 {
		return nil, errors.New("subject public key is not byte aligned")
	}
	return key.Bytes, nil
}
