package cqn

// This file implements the JSON wire encoding for the token-stream tagged
// union: a where/having/on stream is a JSON array mixing bare strings
// (keywords) with single-key objects ({"ref": [...]}, {"val": ...},
// {"xpr": [...]}, {"func": ..., "args": [...]}, {"list": [...]},
// {"SELECT": {...}}), matching the wire convention this compiler's
// input/output travels as.

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders a Ref as a bare array of steps — the value that sits
// under an enclosing "ref" key in a Column or Token, never the wrapping key
// itself, since callers (Column, tokenWire) already supply it. A plain step
// marshals as its bare name; a filtered step carries its extra fields.
func (r *Ref) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	steps := make([]interface{}, len(r.Steps))
	for i, s := range r.Steps {
		if !s.HasFilter() {
			steps[i] = s.Name
			continue
		}
		steps[i] = map[string]interface{}{"id": s.Name, "where": s.Filter}
	}
	return json.Marshal(steps)
}

// UnmarshalJSON parses a Ref from a bare array of steps.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Steps = make([]Step, len(raw))
	for i, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			r.Steps[i] = Step{Name: name}
			continue
		}
		var step struct {
			ID    string `json:"id"`
			Where Tokens `json:"where"`
		}
		if err := json.Unmarshal(item, &step); err != nil {
			return fmt.Errorf("ref step %d: %w", i, err)
		}
		r.Steps[i] = Step{Name: step.ID, Filter: step.Where}
	}
	return nil
}

// tokenWire is the JSON shape a single non-keyword Token marshals to.
type tokenWire struct {
	Ref   *Ref            `json:"ref,omitempty"`
	Val   interface{}     `json:"val,omitempty"`
	Param *string         `json:"ref_,omitempty"`
	Func  string          `json:"func,omitempty"`
	Args  Tokens          `json:"args,omitempty"`
	Xpr   Tokens          `json:"xpr,omitempty"`
	List  Tokens          `json:"list,omitempty"`
	SubSel *Query         `json:"SELECT,omitempty"`
}

// MarshalJSON renders t as a bare string for a keyword, or a tagged object
// for every other kind.
func (t Token) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TokKeyword:
		return json.Marshal(t.Keyword)
	case TokRef:
		return json.Marshal(tokenWire{Ref: t.Ref})
	case TokLiteral:
		return json.Marshal(tokenWire{Val: t.Literal.Val})
	case TokParam:
		name := t.Param.Name
		return json.Marshal(tokenWire{Param: &name})
	case TokFunc:
		return json.Marshal(tokenWire{Func: t.Func.Name, Args: t.Func.Args})
	case TokXpr:
		return json.Marshal(tokenWire{Xpr: t.Xpr})
	case TokList:
		return json.Marshal(tokenWire{List: t.List})
	case TokSubquery:
		return json.Marshal(tokenWire{SubSel: t.Sub})
	default:
		return nil, fmt.Errorf("cqn: unknown token kind %d", t.Kind)
	}
}

// UnmarshalJSON parses either a bare keyword string or a tagged object,
// classifying by which field is present.
func (t *Token) UnmarshalJSON(data []byte) error {
	var kw string
	if err := json.Unmarshal(data, &kw); err == nil {
		*t = Kw(kw)
		return nil
	}
	var w tokenWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Ref != nil:
		*t = RefTok(w.Ref)
	case w.Param != nil:
		*t = ParamTok(*w.Param)
	case w.Func != "":
		*t = FuncTok(w.Func, w.Args...)
	case w.Xpr != nil:
		*t = XprTok(w.Xpr)
	case w.List != nil:
		*t = ListTok(w.List...)
	case w.SubSel != nil:
		*t = SubqueryTok(w.SubSel)
	default:
		*t = LitTok(w.Val)
	}
	return nil
}

// String renders a QueryKind as its wire keyword.
func (k QueryKind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpsert:
		return "UPSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindStream:
		return "STREAM"
	case KindSetOp:
		return "SET"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders k as its wire keyword string.
func (k QueryKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses k from its wire keyword string.
func (k *QueryKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "SELECT":
		*k = KindSelect
	case "INSERT":
		*k = KindInsert
	case "UPSERT":
		*k = KindUpsert
	case "UPDATE":
		*k = KindUpdate
	case "DELETE":
		*k = KindDelete
	case "STREAM":
		*k = KindStream
	case "SET":
		*k = KindSetOp
	default:
		return fmt.Errorf("cqn: unknown query kind %q", s)
	}
	return nil
}
