package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/mibagent/internal/mib"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <oid>...",
		Short: "Read objects by exact OID",
		Long: `Read objects by exact OID.

Unknown OIDs are reported as noSuchObject in their slot; the rest of the
request still succeeds.

Example:
  mibagent get 1.3.6.1.4.1.28308.1.4.0
  mibagent get .1.3.6.1.4.1.28308.1.1.0 .1.3.6.1.4.1.28308.1.2.0 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, cmd, args, false)
		},
	}
}

// NewGetNextCommand creates the getnext command.
func NewGetNextCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "getnext <oid>...",
		Short: "Read the first object after each OID",
		Long: `Read the first cataloged object after each OID.

OIDs at or past the last object are reported as endOfMibView.

Example:
  mibagent getnext 1.3.6.1
  mibagent getnext 1.3.6.1.4.1.28308.1.1.0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, cmd, args, true)
		},
	}
}

// NewWalkCommand creates the walk command.
func NewWalkCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "walk [root]",
		Short: "List every object under a subtree",
		Long: `List every object under a subtree in OID order.

The root defaults to 1.3.6.1.

Example:
  mibagent walk
  mibagent walk 1.3.6.1.4.1.28308`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var root mib.OID
			if len(args) == 1 {
				var err error
				if root, err = mib.ParseOID(args[0]); err != nil {
					return WrapExitError(ExitCommandError, "invalid root", err)
				}
			}

			ctx := commandContext(cmd)
			a, _, _, err := rootOpts.openAgent(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return writeReply(rootOpts.formatter(cmd), a.Walk(root))
		},
	}
}

func runQuery(rootOpts *RootOptions, cmd *cobra.Command, args []string, next bool) error {
	oids := make([]mib.OID, len(args))
	for i, s := range args {
		oid, err := mib.ParseOID(s)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid OID", err)
		}
		oids[i] = oid
	}

	ctx := commandContext(cmd)
	a, _, _, err := rootOpts.openAgent(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	resp := a.Get(oids)
	if next {
		resp = a.GetNext(oids)
	}
	return writeReply(rootOpts.formatter(cmd), resp.VarBinds)
}
