// Package derivation builds the derivation paths that map ICP identifiers to
// positions in the forwarding key tree.
//
// Every path starts with a one-byte tag naming the identifier kind, so an
// ICRC account and a ledger account identifier can never share a path even
// when their remaining bytes coincide.
package derivation

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/klingon-exchange/forwarding-address/pkg/helpers"
)

// Identifier kind tags.
const (
	TagICRC      byte = 1
	TagAccountID byte = 2
)

// DefaultSubaccountSize is the length of the all-zero default subaccount.
const DefaultSubaccountSize = 32

// Index is one non-hardened derivation step. Unlike BIP-32 it is an
// arbitrary byte string rather than a uint32.
type Index []byte

// Path is an ordered sequence of indices, consumed left to right.
type Path []Index

// PathForICRC returns [TagICRC, principal, subaccount]. An empty subaccount
// is replaced by 32 zero bytes. The principal is not validated.
func PathForICRC(principal, subaccount []byte) Path {
	sub := helpers.CloneBytes(subaccount)
	if len(sub) == 0 {
		sub = make([]byte, DefaultSubaccountSize)
	}
	return Path{
		Index{TagICRC},
		Index(helpers.CloneBytes(principal)),
		Index(sub),
	}
}

// PathForAccountID returns [TagAccountID, accountID] with the account
// identifier bytes used verbatim.
func PathForAccountID(accountID []byte) Path {
	return Path{
		Index{TagAccountID},
		Index(helpers.CloneBytes(accountID)),
	}
}

// Len returns the number of derivation steps.
func (p Path) Len() int {
	return len(p)
}

// Equal reports whether p and other have the same indices in the same order.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if !bytes.Equal(p[i], other[i]) {
			return false
		}
	}
	return true
}

// String renders the path as m/<hex>/<hex>/...
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, idx := range p {
		sb.WriteByte('/')
		sb.WriteString(hex.EncodeToString(idx))
	}
	return sb.String()
}
