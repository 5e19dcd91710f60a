package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mibagent/internal/catalog"
	"github.com/roach88/mibagent/internal/mib"
	"github.com/roach88/mibagent/internal/store"
)

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	Community string
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <oid>=[type:]<value>...",
		Short: "Write objects as one all-or-nothing transaction",
		Long: `Write one or more objects as a single transaction.

Every binding is validated before anything is written. If any binding is
refused, nothing changes and the reply names the first failing binding by
its 1-based index.

The value type may be given explicitly (DisplayString, Integer32 or the
aliases OctetString, text, Integer, integer); otherwise the cataloged type
of the OID is used.

Exit codes:
  0 - All bindings committed
  1 - Request rejected (nothing committed)
  2 - Command error

Example:
  mibagent set --community private 1.3.6.1.4.1.28308.1.1.0=Ops
  mibagent set -C private 1.3.6.1.4.1.28308.1.4.0=Integer32:90 1.3.6.1.4.1.28308.1.2.0=ops@example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(opts, cmd, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Community, "community", "C", "public", "community string the request is made with")

	return cmd
}

func runSet(opts *SetOptions, cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, _, _, err := opts.openAgent(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	bindings := make([]store.Binding, len(args))
	for i, arg := range args {
		b, err := parseAssignment(arg, a.Catalog())
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("binding %d", i+1), err)
		}
		bindings[i] = b
	}

	f := opts.formatter(cmd)
	resp := a.Set(ctx, opts.Community, bindings)
	if !resp.OK() {
		if err := writeRejection(f, resp); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "set rejected", resp.Err)
	}
	return writeReply(f, resp.VarBinds)
}

// typeAliases are the command-line spellings accepted besides the
// descriptor-table names. Descriptor tables and scenarios use the
// table names only.
var typeAliases = map[string]string{
	"OctetString": "DisplayString",
	"text":        "DisplayString",
	"Integer":     "Integer32",
	"integer":     "Integer32",
}

func parseTypePrefix(s string) (mib.ValueType, error) {
	if canonical, ok := typeAliases[s]; ok {
		s = canonical
	}
	return mib.ParseValueType(s)
}

// parseAssignment parses "<oid>=[type:]<value>". Without an explicit type
// the cataloged type of the OID is used; uncataloged OIDs default to text
// so the request reaches the store and is refused there.
func parseAssignment(arg string, cat *catalog.Catalog) (store.Binding, error) {
	lhs, rhs, ok := strings.Cut(arg, "=")
	if !ok {
		return store.Binding{}, fmt.Errorf("%q: expected <oid>=[type:]<value>", arg)
	}
	oid, err := mib.ParseOID(lhs)
	if err != nil {
		return store.Binding{}, err
	}

	vt := mib.TypeText
	if d, ok := cat.Lookup(oid); ok {
		vt = d.Type
	}
	if prefix, rest, ok := strings.Cut(rhs, ":"); ok {
		if t, err := parseTypePrefix(prefix); err == nil {
			vt, rhs = t, rest
		}
	}

	v, err := mib.ParseValue(vt, rhs)
	if err != nil {
		return store.Binding{}, fmt.Errorf("%s: %w", oid, err)
	}
	return store.Binding{OID: oid, Value: v}, nil
}
