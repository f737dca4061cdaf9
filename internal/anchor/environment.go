// Package anchor resolves an environment to its trust anchor: the root
// secp256k1 public key and chain code that every forwarding address in that
// environment is derived from.
package anchor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/klingon-exchange/forwarding-address/internal/errs"
)

// Environment selects one of the fixed trust anchors.
type Environment uint8

// Environment IDs. The numeric values are part of the external interface.
const (
	Mainnet Environment = 0
	Testnet Environment = 1
	Local   Environment = 2
)

// AllEnvironments lists every supported environment in ID order.
var AllEnvironments = []Environment{Mainnet, Testnet, Local}

// String returns the lowercase environment name.
func (e Environment) String() string {
	switch e {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Local:
		return "local"
	default:
		return fmt.Sprintf("environment(%d)", uint8(e))
	}
}

// Valid reports whether e is one of the supported environments.
func (e Environment) Valid() bool {
	switch e {
	case Mainnet, Testnet, Local:
		return true
	}
	return false
}

// EnvironmentFromID converts a raw selector. Unknown IDs are rejected rather
// than treated as Mainnet.
func EnvironmentFromID(id uint8) (Environment, error) {
	env := Environment(id)
	if !env.Valid() {
		return 0, fmt.Errorf("%w: unknown environment id %d", errs.ErrInvalidInput, id)
	}
	return env, nil
}

// ParseEnvironment accepts a name (mainnet, testnet, local) or a numeric ID.
func ParseEnvironment(s string) (Environment, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "mainnet", "main", "ic":
		return Mainnet, nil
	case "testnet", "test":
		return Testnet, nil
	case "local", "dfx":
		return Local, nil
	}

	id, err := strconv.ParseUint(name, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown environment %q", errs.ErrInvalidInput, s)
	}
	return EnvironmentFromID(uint8(id))
}

// MarshalText implements encoding.TextMarshaler.
func (e Environment) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: unknown environment id %d", errs.ErrInvalidInput, uint8(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Environment) UnmarshalText(text []byte) error {
	env, err := ParseEnvironment(string(text))
	if err != nil {
		return err
	}
	*e = env
	return nil
}

// Set implements pflag.Value so an Environment can back a command-line flag.
func (e *Environment) Set(s string) error {
	return e.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (e *Environment) Type() string {
	return "environment"
}
