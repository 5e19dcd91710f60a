package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/mibagent/internal/catalog"
)

// DescriptorView is the JSON shape of one catalog entry.
type DescriptorView struct {
	Name    string `json:"name"`
	OID     string `json:"oid"`
	Type    string `json:"type"`
	Access  string `json:"access"`
	Min     int64  `json:"min"`
	Max     int64  `json:"max"`
	Default string `json:"default,omitempty"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the object catalog",
		Long: `List the object catalog in OID order.

Reads the descriptor table named by --catalog (or the config). When the
file does not exist the built-in default table is shown; nothing is
written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			cat, err := readCatalog(cfg.CatalogPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load catalog", err)
			}
			return writeCatalog(rootOpts.formatter(cmd), cat)
		},
	}
}

// readCatalog loads the table at path, or the default when it is absent.
func readCatalog(path string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return catalog.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	table, err := catalog.Parse(data)
	if err != nil {
		return nil, err
	}
	return catalog.FromTable(table)
}

func writeCatalog(f *OutputFormatter, cat *catalog.Catalog) error {
	descs := cat.Descriptors()
	views := make([]DescriptorView, len(descs))
	for i, d := range descs {
		views[i] = DescriptorView{
			Name:   d.Name,
			OID:    d.OID.String(),
			Type:   d.Type.String(),
			Access: d.Access.String(),
			Min:    d.Constraint.Min,
			Max:    d.Constraint.Max,
		}
		if d.Default != nil {
			views[i].Default = d.Default.String()
		}
	}

	if f.Format == "json" {
		return f.Success(views)
	}

	var buf strings.Builder
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tOID\tTYPE\tACCESS\tRANGE")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t[%d, %d]\n", v.Name, v.OID, v.Type, v.Access, v.Min, v.Max)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return f.Success(strings.TrimSuffix(buf.String(), "\n"))
}
