package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/klingon-exchange/forwarding-address/internal/anchor"
	"github.com/klingon-exchange/forwarding-address/internal/config"
	"github.com/klingon-exchange/forwarding-address/internal/derivation"
	"github.com/klingon-exchange/forwarding-address/internal/forwarding"
	"github.com/klingon-exchange/forwarding-address/internal/icp"
	"github.com/klingon-exchange/forwarding-address/pkg/helpers"
)

// errMismatch is returned by verify when the address is not the derived one.
var errMismatch = errors.New("address does not match the derived forwarding address")

// resultJSON is the --json rendering of a derivation.
type resultJSON struct {
	Environment string `json:"environment"`
	Account     string `json:"account,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	Path        string `json:"path"`
	PublicKey   string `json:"public_key"`
	Address     string `json:"address"`
}

func newICRCCmd(a *app) *cobra.Command {
	var subaccount string

	cmd := &cobra.Command{
		Use:   "icrc <principal>",
		Short: "Forwarding address of a principal and optional subaccount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := accountFromFlags(args[0], subaccount)
			if err != nil {
				return err
			}
			res, err := a.deriver.DeriveAccount(a.cfg.Environment, acct)
			if err != nil {
				return err
			}
			return a.printResult(cmd, res, resultJSON{Account: acct.Text()})
		},
	}
	cmd.Flags().StringVar(&subaccount, "subaccount", "", "Subaccount as 64 hex characters (default: all zeros)")
	return cmd
}

func newAccountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "account <icrc1-account>",
		Short: "Forwarding address of an ICRC-1 textual account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := icp.ParseAccount(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			res, err := a.deriver.DeriveAccount(a.cfg.Environment, acct)
			if err != nil {
				return err
			}
			return a.printResult(cmd, res, resultJSON{Account: acct.Text()})
		},
	}
}

func newAccountIDCmd(a *app) *cobra.Command {
	var (
		principal  string
		subaccount string
		raw        bool
	)

	cmd := &cobra.Command{
		Use:   "account-id [hex]",
		Short: "Forwarding address of a ledger account identifier",
		Long: `Forwarding address of a ledger account identifier.

The identifier is given as hex, or computed from --principal and
--subaccount. Hex input must carry a valid CRC32 prefix unless --raw is set,
in which case the bytes are used verbatim.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := accountIDFromFlags(args, principal, subaccount, raw)
			if err != nil {
				return err
			}
			res, err := a.deriver.Derive(a.cfg.Environment, derivation.PathForAccountID(id))
			if err != nil {
				return err
			}
			return a.printResult(cmd, res, resultJSON{AccountID: hex.EncodeToString(id)})
		},
	}
	cmd.Flags().StringVar(&principal, "principal", "", "Compute the identifier from this principal")
	cmd.Flags().StringVar(&subaccount, "subaccount", "", "Subaccount for --principal, 64 hex characters")
	cmd.Flags().BoolVar(&raw, "raw", false, "Use hex input verbatim without checksum validation")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var (
		principal  string
		subaccount string
		account    string
		accountID  string
	)

	cmd := &cobra.Command{
		Use:   "verify <address>",
		Short: "Check that an address is the forwarding address of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := verifyPath(principal, subaccount, account, accountID)
			if err != nil {
				return err
			}
			ok, err := a.deriver.Verify(a.cfg.Environment, path, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return errMismatch
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	}
	cmd.Flags().StringVar(&principal, "principal", "", "Principal of an ICRC account")
	cmd.Flags().StringVar(&subaccount, "subaccount", "", "Subaccount for --principal, 64 hex characters")
	cmd.Flags().StringVar(&account, "account", "", "ICRC-1 textual account")
	cmd.Flags().StringVar(&accountID, "account-id", "", "Ledger account identifier as hex")
	cmd.MarkFlagsMutuallyExclusive("principal", "account", "account-id")
	cmd.MarkFlagsOneRequired("principal", "account", "account-id")
	return cmd
}

func newAnchorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "anchors",
		Short: "List the compiled-in trust anchors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := anchor.DefaultRegistry()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tENVIRONMENT\tPUBLIC KEY\tCHAIN CODE")
			for _, env := range reg.Environments() {
				ta, err := reg.Resolve(env)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", uint8(env), env, ta.Fingerprint(), hex.EncodeToString(ta.ChainCode[:]))
			}
			return tw.Flush()
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath
			if path == "" {
				path = config.ConfigPath(config.DefaultDataDir)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := a.cfg.Save(path); err != nil {
				return err
			}
			a.log.Info("Config written", "path", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

// printResult prints the address, or the full result with --json.
func (a *app) printResult(cmd *cobra.Command, res *forwarding.Result, extra resultJSON) error {
	out := cmd.OutOrStdout()
	addr := a.deriver.Format(res.Address)

	if !strings.EqualFold(a.cfg.Output.Format, "json") {
		_, err := fmt.Fprintln(out, addr)
		return err
	}

	extra.Environment = res.Environment.String()
	extra.Path = res.Path.String()
	extra.PublicKey = hex.EncodeToString(res.PublicKey.SerializeCompressed())
	extra.Address = addr

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(extra)
}

// accountFromFlags builds an ICRC account from a principal and hex subaccount.
func accountFromFlags(principal, subaccount string) (icp.Account, error) {
	owner, err := icp.PrincipalFromText(strings.TrimSpace(principal))
	if err != nil {
		return icp.Account{}, err
	}
	sub, err := helpers.HexToBytes(subaccount)
	if err != nil {
		return icp.Account{}, fmt.Errorf("%w: subaccount: %v", forwarding.ErrInvalidInput, err)
	}
	return icp.NewAccount(owner, sub)
}

func accountIDFromFlags(args []string, principal, subaccount string, raw bool) ([]byte, error) {
	switch {
	case len(args) == 1 && principal != "":
		return nil, errors.New("give either an identifier or --principal, not both")
	case len(args) == 1 && raw:
		b, err := helpers.HexToBytes(args[0])
		if err != nil {
			return nil, fmt.Errorf("%w: account identifier: %v", forwarding.ErrInvalidInput, err)
		}
		return b, nil
	case len(args) == 1:
		id, err := icp.AccountIdentifierFromHex(args[0])
		if err != nil {
			return nil, err
		}
		return id.Bytes(), nil
	case principal != "":
		acct, err := accountFromFlags(principal, subaccount)
		if err != nil {
			return nil, err
		}
		return acct.AccountIdentifier().Bytes(), nil
	default:
		return nil, errors.New("an account identifier or --principal is required")
	}
}

func verifyPath(principal, subaccount, account, accountID string) (derivation.Path, error) {
	switch {
	case principal != "":
		acct, err := accountFromFlags(principal, subaccount)
		if err != nil {
			return nil, err
		}
		sub := acct.EffectiveSubaccount()
		return derivation.PathForICRC(acct.Owner, sub[:]), nil
	case account != "":
		acct, err := icp.ParseAccount(strings.TrimSpace(account))
		if err != nil {
			return nil, err
		}
		sub := acct.EffectiveSubaccount()
		return derivation.PathForICRC(acct.Owner, sub[:]), nil
	default:
		id, err := icp.AccountIdentifierFromHex(accountID)
		if err != nil {
			return nil, err
		}
		return derivation.PathForAccountID(id.Bytes()), nil
	}
}
