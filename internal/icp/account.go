package icp

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/klingon-exchange/forwarding-address/internal/errs"
	"github.com/klingon-exchange/forwarding-address/pkg/helpers"
)

// Account is an ICRC-1 account. A nil Subaccount means the default one.
type Account struct {
	Owner      Principal
	Subaccount *Subaccount
}

// NewAccount builds an account from raw bytes. The subaccount must be empty
// or exactly 32 bytes.
func NewAccount(owner, subaccount []byte) (Account, error) {
	p, err := PrincipalFromBytes(owner)
	if err != nil {
		return Account{}, err
	}
	if len(subaccount) == 0 {
		return Account{Owner: p}, nil
	}
	sub, err := SubaccountFromBytes(subaccount)
	if err != nil {
		return Account{}, err
	}
	return Account{Owner: p, Subaccount: &sub}, nil
}

// EffectiveSubaccount returns the subaccount, substituting the default.
func (a Account) EffectiveSubaccount() Subaccount {
	if a.Subaccount == nil {
		return Subaccount{}
	}
	return *a.Subaccount
}

// AccountIdentifier returns the ledger account identifier of a.
func (a Account) AccountIdentifier() AccountIdentifier {
	return NewAccountIdentifier(a.Owner, a.EffectiveSubaccount())
}

// Text returns the ICRC-1 textual encoding:
// the bare principal for the default subaccount, otherwise
// <principal>-<checksum>.<subaccount hex without leading zeros>.
func (a Account) Text() string {
	sub := a.EffectiveSubaccount()
	if sub.IsDefault() {
		return a.Owner.Text()
	}
	return fmt.Sprintf("%s-%s.%s", a.Owner.Text(), accountChecksum(a.Owner, sub),
		strings.TrimLeft(hex.EncodeToString(sub[:]), "0"))
}

// String implements fmt.Stringer.
func (a Account) String() string {
	return a.Text()
}

// ParseAccount parses the ICRC-1 textual encoding produced by Text.
func ParseAccount(text string) (Account, error) {
	dot := strings.LastIndexByte(text, '.')
	if dot < 0 {
		owner, err := PrincipalFromText(text)
		if err != nil {
			return Account{}, err
		}
		return Account{Owner: owner}, nil
	}

	head, subHex := text[:dot], text[dot+1:]
	dash := strings.LastIndexByte(head, '-')
	if dash < 0 {
		return Account{}, fmt.Errorf("%w: account %q has no checksum", errs.ErrInvalidInput, text)
	}
	ownerText, checksum := head[:dash], head[dash+1:]

	owner, err := PrincipalFromText(ownerText)
	if err != nil {
		return Account{}, err
	}
	if subHex == "" || strings.HasPrefix(subHex, "0") || len(subHex) > 2*SubaccountSize {
		return Account{}, fmt.Errorf("%w: account %q has a non-canonical subaccount", errs.ErrInvalidInput, text)
	}
	if len(subHex)%2 == 1 {
		subHex = "0" + subHex
	}
	raw, err := hex.DecodeString(subHex)
	if err != nil {
		return Account{}, fmt.Errorf("%w: account %q subaccount: %v", errs.ErrInvalidInput, text, err)
	}

	var sub Subaccount
	copy(sub[:], helpers.PadLeft(raw, SubaccountSize))
	if checksum != accountChecksum(owner, sub) {
		return Account{}, fmt.Errorf("%w: account %q has a bad checksum", errs.ErrInvalidInput, text)
	}
	return Account{Owner: owner, Subaccount: &sub}, nil
}

func accountChecksum(owner Principal, sub Subaccount) string {
	crc := crc32.NewIEEE()
	crc.Write(owner)
	crc.Write(sub[:])
	var sum [checksumSize]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	return strings.ToLower(base32Encoding.EncodeToString(sum[:]))
}
