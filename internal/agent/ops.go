package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/mibagent/internal/mib"
	"github.com/roach88/mibagent/internal/store"
)

// DefaultWalkRoot is where Walk starts when given an empty root.
var DefaultWalkRoot = mib.OID{1, 3, 6, 1}

// VarBind is one binding of a reply. Exactly one of Value and Exception
// is set, except in a rejected Set, which echoes the caller's bindings and
// so may carry a nil Value.
type VarBind struct {
	OID       mib.OID
	Value     mib.Value
	Exception mib.ErrorKind // NoSuchObject or EndOfCatalog
}

func (vb VarBind) String() string {
	if vb.Exception != 0 {
		return fmt.Sprintf("%s = %s", vb.OID, vb.Exception)
	}
	if vb.Value == nil {
		return fmt.Sprintf("%s = <nil>", vb.OID)
	}
	return fmt.Sprintf("%s = %s: %s", vb.OID, vb.Value.Type(), vb.Value)
}

// Response is the reply to one request.
//
// A failed Set carries the kind of the first failure, its 1-based binding
// index (0 for request-level failures) and the caller's bindings
// unchanged.
type Response struct {
	Status   mib.ErrorKind
	Index    int
	VarBinds []VarBind
	Err      error
}

// OK reports whether the request succeeded.
func (r Response) OK() bool {
	return r.Status == 0 && r.Err == nil
}

func (r Response) String() string {
	lines := make([]string, 0, len(r.VarBinds)+1)
	if !r.OK() {
		lines = append(lines, fmt.Sprintf("error: %s at index %d", r.Status, r.Index))
	}
	for _, vb := range r.VarBinds {
		lines = append(lines, vb.String())
	}
	return strings.Join(lines, "\n")
}

// Get reads each OID exactly. Unknown OIDs get a NoSuchObject exception in
// their slot; Get itself never fails.
func (a *Agent) Get(oids []mib.OID) Response {
	vbs := make([]VarBind, len(oids))
	for i, oid := range oids {
		vbs[i].OID = oid.Clone()
		if v, ok := a.store.ReadExact(oid); ok {
			vbs[i].Value = v
		} else {
			vbs[i].Exception = mib.NoSuchObject
		}
	}
	return Response{VarBinds: vbs}
}

// GetNext returns, for each OID, the first cataloged object after it.
// Exhausted slots carry EndOfCatalog and echo the requested OID.
func (a *Agent) GetNext(oids []mib.OID) Response {
	vbs := make([]VarBind, len(oids))
	for i, oid := range oids {
		next, v, ok := a.store.ReadNext(oid)
		if !ok {
			vbs[i] = VarBind{OID: oid.Clone(), Exception: mib.EndOfCatalog}
			continue
		}
		vbs[i] = VarBind{OID: next, Value: v}
	}
	return Response{VarBinds: vbs}
}

// Walk returns every object in the subtree under root, in catalog order.
// An empty root means DefaultWalkRoot. When the subtree is empty but root
// itself is cataloged, that one object is returned.
func (a *Agent) Walk(root mib.OID) []VarBind {
	if len(root) == 0 {
		root = DefaultWalkRoot
	}

	var out []VarBind
	cur := root
	for {
		next, v, ok := a.store.ReadNext(cur)
		if !ok || !next.HasPrefix(root) {
			break
		}
		out = append(out, VarBind{OID: next, Value: v})
		cur = next
	}
	if len(out) == 0 {
		if v, ok := a.store.ReadExact(root); ok {
			out = append(out, VarBind{OID: root.Clone(), Value: v})
		}
	}
	return out
}

// Set writes every binding or none, on behalf of principal.
//
// On success the reply holds the post-commit value of each binding. On
// failure it holds the caller's bindings as given.
func (a *Agent) Set(ctx context.Context, principal string, bindings []store.Binding) Response {
	c := a.policy.Classify(principal)

	out, err := a.store.Apply(ctx, bindings, c)
	if err != nil {
		resp := Response{
			Status:   store.KindOf(err),
			VarBinds: echo(bindings),
			Err:      err,
		}
		var te *store.TxError
		if errors.As(err, &te) {
			resp.Index = te.Index
		}
		if resp.Status == 0 {
			resp.Status = mib.PersistenceFailure
		}
		a.logger.Info("set rejected",
			"principal", principal,
			"capability", c,
			"bindings", len(bindings),
			"status", resp.Status,
			"index", resp.Index,
		)
		return resp
	}

	vbs := make([]VarBind, len(out))
	for i, b := range out {
		vbs[i] = VarBind{OID: b.OID, Value: b.Value}
	}
	a.logger.Debug("set committed", "principal", principal, "bindings", len(bindings))
	return Response{VarBinds: vbs}
}

func echo(bindings []store.Binding) []VarBind {
	vbs := make([]VarBind, len(bindings))
	for i, b := range bindings {
		vbs[i] = VarBind{OID: b.OID.Clone(), Value: b.Value}
	}
	return vbs
}
