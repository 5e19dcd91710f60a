package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/mibagent/internal/agent"
	"github.com/roach88/mibagent/internal/mib"
)

// VarBindView is the JSON shape of one reply binding.
type VarBindView struct {
	OID       string `json:"oid"`
	Type      string `json:"type,omitempty"`
	Value     any    `json:"value,omitempty"`
	Exception string `json:"exception,omitempty"`
}

// ReplyView is the JSON shape of a reply.
type ReplyView struct {
	VarBinds []VarBindView `json:"varbinds"`
	Status   string        `json:"status,omitempty"`
	Index    *int          `json:"index,omitempty"`
}

func viewVarBinds(vbs []agent.VarBind) []VarBindView {
	out := make([]VarBindView, len(vbs))
	for i, vb := range vbs {
		out[i].OID = vb.OID.String()
		if vb.Exception != 0 {
			out[i].Exception = vb.Exception.String()
			continue
		}
		if vb.Value == nil {
			continue
		}
		out[i].Type = vb.Value.Type().String()
		switch v := vb.Value.(type) {
		case mib.Integer:
			out[i].Value = int64(v)
		default:
			out[i].Value = v.String()
		}
	}
	return out
}

// writeReply prints a successful reply.
func writeReply(f *OutputFormatter, vbs []agent.VarBind) error {
	if f.Format == "json" {
		return f.Success(ReplyView{VarBinds: viewVarBinds(vbs)})
	}
	lines := make([]string, len(vbs))
	for i, vb := range vbs {
		lines[i] = vb.String()
	}
	return f.Success(strings.Join(lines, "\n"))
}

// writeRejection prints a failed Set: the kind, the 1-based index and the
// caller's bindings.
func writeRejection(f *OutputFormatter, resp agent.Response) error {
	code := CodeSetRejected
	if resp.Status == mib.PersistenceFailure {
		code = CodePersistence
	}
	message := fmt.Sprintf("%s at index %d", resp.Status, resp.Index)

	if f.Format == "json" {
		index := resp.Index
		return f.Error(code, message, ReplyView{
			VarBinds: viewVarBinds(resp.VarBinds),
			Status:   resp.Status.String(),
			Index:    &index,
		})
	}

	lines := make([]string, len(resp.VarBinds))
	for i, vb := range resp.VarBinds {
		lines[i] = vb.String()
	}
	return f.Error(code, message, strings.Join(lines, "\n"))
}
