package catalog

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// validateTable checks a decoded descriptor table against the embedded
// CUE schema. raw is the generic YAML decoding (map[string]any).
func validateTable(raw map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile descriptor schema: %w", err)
	}

	data := ctx.Encode(raw)
	if err := data.Err(); err != nil {
		return fmt.Errorf("encode descriptor table: %w", err)
	}

	table := schema.LookupPath(cue.ParsePath("#Table")).Unify(data)
	if err := table.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("descriptor table: %s", cueerrors.Details(err, nil))
	}
	return nil
}
