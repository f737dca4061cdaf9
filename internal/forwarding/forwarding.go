// Package forwarding derives forwarding addresses: EVM addresses that belong
// 1:1 to an ICP account and can be recomputed by anyone holding the
// environment's root public key.
//
// Derivation is a pure function of (environment, identifier). A Deriver holds
// only immutable state and is safe for concurrent use.
package forwarding

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/klingon-exchange/forwarding-address/internal/anchor"
	"github.com/klingon-exchange/forwarding-address/internal/derivation"
	"github.com/klingon-exchange/forwarding-address/internal/errs"
	"github.com/klingon-exchange/forwarding-address/internal/evm"
	"github.com/klingon-exchange/forwarding-address/internal/hdkey"
	"github.com/klingon-exchange/forwarding-address/internal/icp"
	"github.com/klingon-exchange/forwarding-address/pkg/logging"
)

// Error kinds; every error returned by this package wraps one of them.
var (
	ErrConfiguration = errs.ErrConfiguration
	ErrInvalidInput  = errs.ErrInvalidInput
	ErrDerivation    = errs.ErrDerivation
)

// Config configures a Deriver.
type Config struct {
	// Registry supplies trust anchors. Defaults to the compiled-in anchors.
	Registry *anchor.Registry

	// Logger receives debug output. Defaults to logging.GetDefault().
	Logger *logging.Logger

	// Lowercase renders addresses without EIP-55 casing.
	Lowercase bool
}

// Deriver maps identifiers to forwarding addresses.
type Deriver struct {
	registry  *anchor.Registry
	log       *logging.Logger
	lowercase bool
}

// Result is the full outcome of one derivation.
type Result struct {
	Environment anchor.Environment
	Path        derivation.Path
	PublicKey   *btcec.PublicKey
	ChainCode   hdkey.ChainCode
	Address     common.Address
}

// NewDeriver creates a Deriver. A nil cfg uses the defaults.
func NewDeriver(cfg *Config) (*Deriver, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	registry := cfg.Registry
	if registry == nil {
		var err error
		registry, err = anchor.DefaultRegistry()
		if err != nil {
			return nil, err
		}
	}

	log := cfg.Logger
	if log == nil {
		log = logging.GetDefault()
	}

	return &Deriver{
		registry:  registry,
		log:       log.Component("forwarding"),
		lowercase: cfg.Lowercase,
	}, nil
}

// Derive resolves env's anchor and derives the key and address at path.
func (d *Deriver) Derive(env anchor.Environment, path derivation.Path) (*Result, error) {
	a, err := d.registry.Resolve(env)
	if err != nil {
		return nil, err
	}

	pub, code, err := hdkey.DerivePath(a.PublicKey, a.ChainCode[:], path)
	if err != nil {
		return nil, fmt.Errorf("derive %s %s: %w", env, path, err)
	}

	res := &Result{
		Environment: env,
		Path:        path,
		PublicKey:   pub,
		ChainCode:   code,
		Address:     evm.PublicKeyToAddress(pub),
	}
	d.log.Debug("Derived forwarding address", "env", env, "path", path, "address", res.Address.Hex())
	return res, nil
}

// Format renders an address the way this Deriver is configured to.
func (d *Deriver) Format(addr common.Address) string {
	return evm.FormatAddress(addr, d.lowercase)
}

// AddressFromPath returns the formatted address at path.
func (d *Deriver) AddressFromPath(env anchor.Environment, path derivation.Path) (string, error) {
	res, err := d.Derive(env, path)
	if err != nil {
		return "", err
	}
	return d.Format(res.Address), nil
}

// AddressFromICRC returns the forwarding address of an ICRC account given as
// raw principal and subaccount bytes. An empty subaccount is the default one.
func (d *Deriver) AddressFromICRC(env anchor.Environment, principal, subaccount []byte) (string, error) {
	return d.AddressFromPath(env, derivation.PathForICRC(principal, subaccount))
}

// AddressFromAccountID returns the forwarding address of a ledger account
// identifier, used verbatim.
func (d *Deriver) AddressFromAccountID(env anchor.Environment, accountID []byte) (string, error) {
	return d.AddressFromPath(env, derivation.PathForAccountID(accountID))
}

// DeriveAccount derives the result for a validated ICRC-1 account.
func (d *Deriver) DeriveAccount(env anchor.Environment, acct icp.Account) (*Result, error) {
	if len(acct.Owner) > icp.MaxPrincipalLength {
		return nil, fmt.Errorf("%w: principal is %d bytes, max %d",
			errs.ErrInvalidInput, len(acct.Owner), icp.MaxPrincipalLength)
	}
	sub := acct.EffectiveSubaccount()
	return d.Derive(env, derivation.PathForICRC(acct.Owner, sub[:]))
}

// AddressForAccount is AddressFromICRC over a validated ICRC-1 account.
func (d *Deriver) AddressForAccount(env anchor.Environment, acct icp.Account) (string, error) {
	res, err := d.DeriveAccount(env, acct)
	if err != nil {
		return "", err
	}
	return d.Format(res.Address), nil
}

// Verify reports whether address is the forwarding address at path. The
// comparison ignores case but rejects a mixed-case address with a bad
// EIP-55 checksum.
func (d *Deriver) Verify(env anchor.Environment, path derivation.Path, address string) (bool, error) {
	want, err := evm.ParseAddress(address)
	if err != nil {
		return false, err
	}
	res, err := d.Derive(env, path)
	if err != nil {
		return false, err
	}
	return res.Address == want, nil
}

var defaultDeriver = sync.OnceValues(func() (*Deriver, error) {
	return NewDeriver(nil)
})

func deriverFor(env uint8) (*Deriver, anchor.Environment, error) {
	e, err := anchor.EnvironmentFromID(env)
	if err != nil {
		return nil, 0, err
	}
	d, err := defaultDeriver()
	if err != nil {
		return nil, 0, err
	}
	return d, e, nil
}

// AddressFromICRC derives with the compiled-in anchors. env is 0 (mainnet),
// 1 (testnet) or 2 (local); anything else is ErrInvalidInput.
func AddressFromICRC(env uint8, principal, subaccount []byte) (string, error) {
	d, e, err := deriverFor(env)
	if err != nil {
		return "", err
	}
	return d.AddressFromICRC(e, principal, subaccount)
}

// AddressFromAccountID derives with the compiled-in anchors.
func AddressFromAccountID(env uint8, accountID []byte) (string, error) {
	d, e, err := deriverFor(env)
	if err != nil {
		return "", err
	}
	return d.AddressFromAccountID(e, accountID)
}

// AddressFromPath derives with the compiled-in anchors.
func AddressFromPath(env uint8, path derivation.Path) (string, error) {
	d, e, err := deriverFor(env)
	if err != nil {
		return "", err
	}
	return d.AddressFromPath(e, path)
}

// String summarizes a result on one line.
func (r *Result) String() string {
	return fmt.Sprintf("%s %s -> %s", r.Environment, r.Path, r.Address.Hex())
}
