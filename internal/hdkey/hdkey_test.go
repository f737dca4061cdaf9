package hdkey

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/klingon-exchange/forwarding-address/internal/derivation"
	"github.com/klingon-exchange/forwarding-address/internal/errs"
)

// Local environment root key and chain code.
const (
	localRootHex      = "0380f39ccec5433b6696ce64023f94b701c5068becb7171649f79cc0ff62799e84"
	localChainCodeHex = "70628cc337d33056c29f473dd91d1644a232ac16a8d1d87e0c524e0feafefb6c"
)

var testPrincipal = []byte{0x00, 0x00, 0x00, 0x00, 0x02, 0x30, 0x0b, 0x7c, 0x01, 0x01}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func localRoot(t *testing.T) (*btcec.PublicKey, []byte) {
	t.Helper()
	pub, err := btcec.ParsePubKey(mustHex(t, localRootHex))
	if err != nil {
		t.Fatalf("ParsePubKey() error = %v", err)
	}
	return pub, mustHex(t, localChainCodeHex)
}

func TestDeriveChildVector(t *testing.T) {
	root, code := localRoot(t)

	child, childCode, err := DeriveChild(root, code, []byte{derivation.TagICRC})
	if err != nil {
		t.Fatalf("DeriveChild() error = %v", err)
	}

	wantKey := "03622b5dec0cda6e2197d0b30111c5262e699a34abeef899324a43da96b734f2e4"
	wantCode := "24cea874326647ab6e2f13efc6c14d8f4f5daa968e24ba37c44735b50c61362e"
	if got := hex.EncodeToString(child.SerializeCompressed()); got != wantKey {
		t.Errorf("child = %s, want %s", got, wantKey)
	}
	if got := hex.EncodeToString(childCode[:]); got != wantCode {
		t.Errorf("chain code = %s, want %s", got, wantCode)
	}
}

func TestDerivePathVector(t *testing.T) {
	root, code := localRoot(t)

	sub, _, err := DerivePath(root, code, derivation.PathForICRC(testPrincipal, nil))
	if err != nil {
		t.Fatalf("DerivePath() error = %v", err)
	}

	want := "029d3d6ce771235c9ed98430cd3c9f595108aa19e7ce8b53316e146cef240e53a4"
	if got := hex.EncodeToString(sub.SerializeCompressed()); got != want {
		t.Errorf("subkey = %s, want %s", got, want)
	}
}

// The public child must match the key obtained by tweaking the parent's
// private key with the same HMAC output.
func TestDeriveChildMatchesPrivateDerivation(t *testing.T) {
	code := bytes.Repeat([]byte{0x5a}, ChainCodeSize)
	indices := [][]byte{{}, {0x01}, {0x02}, testPrincipal, bytes.Repeat([]byte{0xff}, 64)}

	for i, seed := range []byte{0x01, 0x42, 0xfe} {
		privBytes := bytes.Repeat([]byte{seed}, 32)
		priv, pub := btcec.PrivKeyFromBytes(privBytes)

		for _, idx := range indices {
			mac := hmac.New(sha512.New, code)
			mac.Write(pub.SerializeCompressed())
			mac.Write(idx)
			sum := mac.Sum(nil)

			var tweak secp256k1.ModNScalar
			if overflow := tweak.SetByteSlice(sum[:32]); overflow {
				t.Fatalf("unexpected overflow for seed %d", i)
			}
			childScalar := priv.Key
			childScalar.Add(&tweak)
			want := secp256k1.NewPrivateKey(&childScalar).PubKey()

			got, gotCode, err := DeriveChild(pub, code, idx)
			if err != nil {
				t.Fatalf("DeriveChild() error = %v", err)
			}
			if !got.IsEqual(want) {
				t.Errorf("seed %x index %x: public child does not match private derivation", seed, idx)
			}
			if !bytes.Equal(gotCode[:], sum[32:]) {
				t.Errorf("seed %x index %x: chain code mismatch", seed, idx)
			}
		}
	}
}

func TestDeriveChildChainCodeLength(t *testing.T) {
	root, code := localRoot(t)

	for _, n := range []int{0, 16, 31, 33, 64} {
		bad := make([]byte, n)
		copy(bad, code)
		if _, _, err := DeriveChild(root, bad, []byte{1}); !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("DeriveChild with %d-byte chain code: expected ErrInvalidInput, got %v", n, err)
		}
		if _, _, err := DerivePath(root, bad, derivation.Path{}); !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("DerivePath with %d-byte chain code: expected ErrInvalidInput, got %v", n, err)
		}
	}
}

func TestDeriveNilKey(t *testing.T) {
	code := make([]byte, ChainCodeSize)
	if _, _, err := DeriveChild(nil, code, nil); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := DerivePath(nil, code, nil); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDerivePathEmpty(t *testing.T) {
	root, code := localRoot(t)

	key, gotCode, err := DerivePath(root, code, nil)
	if err != nil {
		t.Fatalf("DerivePath() error = %v", err)
	}
	if !key.IsEqual(root) {
		t.Error("empty path should return the root key")
	}
	if !bytes.Equal(gotCode[:], code) {
		t.Error("empty path should return the root chain code")
	}
}

func TestDerivePathIsStepwiseFold(t *testing.T) {
	root, code := localRoot(t)
	path := derivation.PathForAccountID(bytes.Repeat([]byte{0x33}, 32))

	key, chain := root, code
	for _, idx := range path {
		child, next, err := DeriveChild(key, chain, idx)
		if err != nil {
			t.Fatalf("DeriveChild() error = %v", err)
		}
		key, chain = child, next[:]
	}

	got, gotCode, err := DerivePath(root, code, path)
	if err != nil {
		t.Fatalf("DerivePath() error = %v", err)
	}
	if !got.IsEqual(key) || !bytes.Equal(gotCode[:], chain) {
		t.Error("DerivePath differs from stepwise DeriveChild")
	}
}

func TestIndexBoundariesMatter(t *testing.T) {
	root, code := localRoot(t)

	joined, _, err := DerivePath(root, code, derivation.Path{derivation.Index{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	split, _, err := DerivePath(root, code, derivation.Path{derivation.Index{1}, derivation.Index{2}})
	if err != nil {
		t.Fatal(err)
	}
	if joined.IsEqual(split) {
		t.Error("[0102] and [01, 02] must derive different keys")
	}
}

func TestDeriveConcurrent(t *testing.T) {
	root, code := localRoot(t)
	path := derivation.PathForICRC(testPrincipal, nil)

	want, _, err := DerivePath(root, code, path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([]*btcec.PublicKey, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, _ = DerivePath(root, code, path)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got == nil || !got.IsEqual(want) {
			t.Errorf("goroutine %d derived a different key", i)
		}
	}
}

func TestRetryData(t *testing.T) {
	ir := bytes.Repeat([]byte{0xaa}, 32)
	data := retryData(ir)
	if len(data) != 33 || data[0] != 0x01 || !bytes.Equal(data[1:], ir) {
		t.Errorf("retryData = %x", data)
	}
}

func TestIsInfinity(t *testing.T) {
	_, pub := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x07}, 32))

	var p, neg, sum secp256k1.JacobianPoint
	pub.AsJacobian(&p)
	neg = p
	neg.Y.Negate(1).Normalize()

	if isInfinity(&p) {
		t.Error("a real point is not infinity")
	}
	secp256k1.AddNonConst(&p, &neg, &sum)
	if !isInfinity(&sum) {
		t.Error("P + (-P) should be infinity")
	}
}
