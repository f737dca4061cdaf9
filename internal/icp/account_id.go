package icp

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/crc32"

	"github.com/klingon-exchange/forwarding-address/internal/errs"
	"github.com/klingon-exchange/forwarding-address/pkg/helpers"
)

// SubaccountSize is the length of a subaccount in bytes.
const SubaccountSize = 32

// AccountIdentifierSize is the length of a ledger account identifier.
const AccountIdentifierSize = 32

// accountIDDomain separates account identifier hashes from other SHA-224 uses.
var accountIDDomain = []byte("\x0Aaccount-id")

// Subaccount selects one of a principal's accounts. The zero value is the
// default subaccount.
type Subaccount [SubaccountSize]byte

// SubaccountFromBytes converts b to a Subaccount. Empty input yields the
// default subaccount; any other length than 32 is an error.
func SubaccountFromBytes(b []byte) (Subaccount, error) {
	var sub Subaccount
	switch len(b) {
	case 0:
	case SubaccountSize:
		copy(sub[:], b)
	default:
		return sub, fmt.Errorf("%w: subaccount must be %d bytes, got %d", errs.ErrInvalidInput, SubaccountSize, len(b))
	}
	return sub, nil
}

// IsDefault reports whether s is the all-zero subaccount.
func (s Subaccount) IsDefault() bool {
	return helpers.IsZeroBytes(s[:])
}

// AccountIdentifier is the ledger's 32-byte account address:
// CRC32(h) || h with h = SHA-224("\x0Aaccount-id" || principal || subaccount).
type AccountIdentifier [AccountIdentifierSize]byte

// NewAccountIdentifier computes the account identifier of owner's subaccount.
func NewAccountIdentifier(owner Principal, sub Subaccount) AccountIdentifier {
	h := sha256.New224()
	h.Write(accountIDDomain)
	h.Write(owner)
	h.Write(sub[:])
	hash := h.Sum(nil)

	var id AccountIdentifier
	binary.BigEndian.PutUint32(id[:checksumSize], crc32.ChecksumIEEE(hash))
	copy(id[checksumSize:], hash)
	return id
}

// AccountIdentifierFromBytes validates length and checksum of a raw identifier.
func AccountIdentifierFromBytes(b []byte) (AccountIdentifier, error) {
	var id AccountIdentifier
	if len(b) != AccountIdentifierSize {
		return id, fmt.Errorf("%w: account identifier must be %d bytes, got %d",
			errs.ErrInvalidInput, AccountIdentifierSize, len(b))
	}
	copy(id[:], b)
	if !id.checksumValid() {
		return AccountIdentifier{}, fmt.Errorf("%w: account identifier %x has a bad checksum", errs.ErrInvalidInput, b)
	}
	return id, nil
}

// AccountIdentifierFromHex parses the 64-character hex form.
func AccountIdentifierFromHex(s string) (AccountIdentifier, error) {
	b, err := helpers.HexToBytes(s)
	if err != nil {
		return AccountIdentifier{}, fmt.Errorf("%w: account identifier %q: %v", errs.ErrInvalidInput, s, err)
	}
	return AccountIdentifierFromBytes(b)
}

// Hex returns the lowercase hex form.
func (a AccountIdentifier) Hex() string {
	return hex.EncodeToString(a[:])
}

// String implements fmt.Stringer.
func (a AccountIdentifier) String() string {
	return a.Hex()
}

// Bytes returns the identifier as a slice.
func (a AccountIdentifier) Bytes() []byte {
	return helpers.CloneBytes(a[:])
}

func (a AccountIdentifier) checksumValid() bool {
	var sum [checksumSize]byte
	binary.BigEndian.PutUint32(sum[:], crc32.ChecksumIEEE(a[checksumSize:]))
	return bytes.Equal(sum[:], a[:checksumSize])
}
