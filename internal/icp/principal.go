// Package icp implements the Internet Computer identifier formats that
// forwarding addresses are derived from: principals, ledger account
// identifiers and ICRC-1 accounts.
package icp

import (
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/klingon-exchange/forwarding-address/internal/errs"
	"github.com/klingon-exchange/forwarding-address/pkg/helpers"
)

// MaxPrincipalLength is the largest principal in bytes.
const MaxPrincipalLength = 29

// checksumSize is the CRC32 prefix length used by the textual encodings.
const checksumSize = 4

var base32Encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Principal is the raw byte form of an IC principal.
type Principal []byte

// PrincipalFromBytes validates the length of a raw principal and copies it.
func PrincipalFromBytes(b []byte) (Principal, error) {
	if len(b) > MaxPrincipalLength {
		return nil, fmt.Errorf("%w: principal is %d bytes, max %d", errs.ErrInvalidInput, len(b), MaxPrincipalLength)
	}
	return Principal(helpers.CloneBytes(b)), nil
}

// PrincipalFromText parses the canonical dashed base32 form, e.g.
// "5okwm-giaaa-aaaar-qbn6a-cai". Non-canonical spellings are rejected.
func PrincipalFromText(text string) (Principal, error) {
	raw := strings.ToUpper(strings.ReplaceAll(text, "-", ""))
	decoded, err := base32Encoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: principal %q: %v", errs.ErrInvalidInput, text, err)
	}
	if len(decoded) < checksumSize {
		return nil, fmt.Errorf("%w: principal %q is too short", errs.ErrInvalidInput, text)
	}

	p, err := PrincipalFromBytes(decoded[checksumSize:])
	if err != nil {
		return nil, err
	}
	if binary.BigEndian.Uint32(decoded[:checksumSize]) != crc32.ChecksumIEEE(p) {
		return nil, fmt.Errorf("%w: principal %q has a bad checksum", errs.ErrInvalidInput, text)
	}
	if p.Text() != text {
		return nil, fmt.Errorf("%w: principal %q is not in canonical form", errs.ErrInvalidInput, text)
	}
	return p, nil
}

// Text returns the canonical textual form.
func (p Principal) Text() string {
	buf := make([]byte, checksumSize+len(p))
	binary.BigEndian.PutUint32(buf, crc32.ChecksumIEEE(p))
	copy(buf[checksumSize:], p)
	return groupDashes(strings.ToLower(base32Encoding.EncodeToString(buf)), 5)
}

// String implements fmt.Stringer.
func (p Principal) String() string {
	return p.Text()
}

// Bytes returns a copy of the raw principal.
func (p Principal) Bytes() []byte {
	return helpers.CloneBytes(p)
}

// groupDashes inserts a dash after every n characters.
func groupDashes(s string, n int) string {
	var sb strings.Builder
	for i := 0; i < len(s); i += n {
		if i > 0 {
			sb.WriteByte('-')
		}
		end := i + n
		if end > len(s) {
			end = len(s)
		}
		sb.WriteString(s[i:end])
	}
	return sb.String()
}
