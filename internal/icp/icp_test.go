package icp

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/klingon-exchange/forwarding-address/internal/errs"
)

const (
	bridgePrincipalText = "5okwm-giaaa-aaaar-qbn6a-cai"
	bridgePrincipalHex  = "0000000002300b7c0101"
	icrcExampleText     = "k2t6j-2nvnp-4zjm3-25dtz-6xhaa-c7boj-5gayf-oj3xs-i43lp-teztq-6ae"
	testSubaccountHex   = "1122334455667788991011121314151617181920212223242526272829303132"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestPrincipalText(t *testing.T) {
	tests := []struct {
		text string
		hex  string
	}{
		{bridgePrincipalText, bridgePrincipalHex},
		{"aaaaa-aa", ""},
		{"2vxsx-fae", "04"},
		{icrcExampleText, "b56bf994b37ae8e79f5ce000be1727a6060ae4eef24736b7cc999c3c02"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			p, err := PrincipalFromText(tt.text)
			if err != nil {
				t.Fatalf("PrincipalFromText() error = %v", err)
			}
			if got := hex.EncodeToString(p.Bytes()); got != tt.hex {
				t.Errorf("bytes = %s, want %s", got, tt.hex)
			}
			if got := Principal(mustHex(t, tt.hex)).Text(); got != tt.text {
				t.Errorf("Text() = %s, want %s", got, tt.text)
			}
		})
	}
}

func TestPrincipalFromTextErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"uppercase", "5OKWM-GIAAA-AAAAR-QBN6A-CAI"},
		{"no dashes", "5okwmgiaaaaaaarqbn6acai"},
		{"bad checksum", "6okwm-giaaa-aaaar-qbn6a-cai"},
		{"not base32", "5okwm-giaaa-aaaar-qbn6a-ca1"},
		{"too short", "aaaa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PrincipalFromText(tt.text); !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("PrincipalFromText(%q): expected ErrInvalidInput, got %v", tt.text, err)
			}
		})
	}
}

func TestPrincipalFromBytesLength(t *testing.T) {
	if _, err := PrincipalFromBytes(make([]byte, MaxPrincipalLength)); err != nil {
		t.Errorf("29-byte principal should be accepted: %v", err)
	}
	if _, err := PrincipalFromBytes(make([]byte, MaxPrincipalLength+1)); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewAccountIdentifier(t *testing.T) {
	owner := Principal(mustHex(t, bridgePrincipalHex))
	sub, err := SubaccountFromBytes(mustHex(t, testSubaccountHex))
	if err != nil {
		t.Fatal(err)
	}

	id := NewAccountIdentifier(owner, sub)
	want := "67ea9046310f1bee233bc2b8f1c0b67d6f9c750c3a6aab7ccbfbf992f5aaf22f"
	if id.Hex() != want {
		t.Errorf("NewAccountIdentifier = %s, want %s", id.Hex(), want)
	}

	parsed, err := AccountIdentifierFromHex(want)
	if err != nil {
		t.Fatalf("AccountIdentifierFromHex() error = %v", err)
	}
	if parsed != id {
		t.Error("parsed identifier differs")
	}
}

func TestAccountIdentifierChecksum(t *testing.T) {
	id := NewAccountIdentifier(Principal(mustHex(t, bridgePrincipalHex)), Subaccount{})
	b := id.Bytes()
	b[10] ^= 0xff

	if _, err := AccountIdentifierFromBytes(b); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected checksum error, got %v", err)
	}
	if _, err := AccountIdentifierFromBytes(b[:31]); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected length error, got %v", err)
	}
	if _, err := AccountIdentifierFromHex("xyz"); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected hex error, got %v", err)
	}
}

func TestSubaccountFromBytes(t *testing.T) {
	sub, err := SubaccountFromBytes(nil)
	if err != nil || !sub.IsDefault() {
		t.Errorf("empty input should give the default subaccount, got %x, %v", sub, err)
	}
	sub, err = SubaccountFromBytes(mustHex(t, testSubaccountHex))
	if err != nil || sub.IsDefault() {
		t.Errorf("unexpected result %x, %v", sub, err)
	}
	for _, n := range []int{1, 31, 33} {
		if _, err := SubaccountFromBytes(make([]byte, n)); !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("%d bytes: expected ErrInvalidInput, got %v", n, err)
		}
	}
}

func TestAccountText(t *testing.T) {
	owner, err := PrincipalFromText(icrcExampleText)
	if err != nil {
		t.Fatal(err)
	}

	seq := make([]byte, SubaccountSize)
	for i := range seq {
		seq[i] = byte(i + 1)
	}
	one := make([]byte, SubaccountSize)
	one[31] = 1

	tests := []struct {
		name string
		sub  []byte
		text string
	}{
		{"default", nil, icrcExampleText},
		{"explicit zero", make([]byte, SubaccountSize), icrcExampleText},
		{"sequence", seq, icrcExampleText + "-dfxgiyy.102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"},
		{"one", one, icrcExampleText + "-6cc627i.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct, err := NewAccount(owner, tt.sub)
			if err != nil {
				t.Fatalf("NewAccount() error = %v", err)
			}
			if got := acct.Text(); got != tt.text {
				t.Errorf("Text() = %s, want %s", got, tt.text)
			}

			parsed, err := ParseAccount(tt.text)
			if err != nil {
				t.Fatalf("ParseAccount() error = %v", err)
			}
			if !bytes.Equal(parsed.Owner, owner) {
				t.Error("owner mismatch")
			}
			if parsed.EffectiveSubaccount() != acct.EffectiveSubaccount() {
				t.Error("subaccount mismatch")
			}
		})
	}
}

func TestParseAccountErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bad checksum", icrcExampleText + "-aaaaaaa.1"},
		{"leading zero", icrcExampleText + "-6cc627i.01"},
		{"empty subaccount", icrcExampleText + "-6cc627i."},
		{"missing checksum", "aaaaa.1"},
		{"bad owner", "nope-6cc627i.1"},
		{"not hex", icrcExampleText + "-6cc627i.xyz"},
		{"too long", icrcExampleText + "-6cc627i.1" + string(bytes.Repeat([]byte("0"), 64))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAccount(tt.text); !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("ParseAccount(%q): expected ErrInvalidInput, got %v", tt.text, err)
			}
		})
	}
}

func TestAccountAccountIdentifier(t *testing.T) {
	owner := mustHex(t, bridgePrincipalHex)
	acct, err := NewAccount(owner, mustHex(t, testSubaccountHex))
	if err != nil {
		t.Fatal(err)
	}
	if got := acct.AccountIdentifier().Hex(); got != "67ea9046310f1bee233bc2b8f1c0b67d6f9c750c3a6aab7ccbfbf992f5aaf22f" {
		t.Errorf("AccountIdentifier() = %s", got)
	}

	if _, err := NewAccount(owner, make([]byte, 16)); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for 16-byte subaccount, got %v", err)
	}
}
