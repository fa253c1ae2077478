package semant

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"coolc/ast"
)

// MethodSignature is the exported form of a method declaration.
type MethodSignature struct {
	Name       string       `msgpack:"name"`
	Formals    []FormalInfo `msgpack:"formals"`
	ReturnType string       `msgpack:"return_type"`
}

// ClassSignature lists the methods a class declares itself.
type ClassSignature struct {
	Name    string            `msgpack:"name"`
	Parent  string            `msgpack:"parent,omitempty"`
	Builtin bool              `msgpack:"builtin"`
	Methods []MethodSignature `msgpack:"methods"`
}

// Signatures snapshots the registry in registration order.
func (r *ClassRegistry) Signatures() []ClassSignature {
	out := make([]ClassSignature, 0, len(r.classes))
	for _, c := range r.classes {
		sig := ClassSignature{Name: c.Name, Builtin: c.Builtin}
		if c.Parent != ast.NoType {
			sig.Parent = r.Name(c.Parent)
		}
		for _, name := range c.Declared {
			m := c.Methods.Get(name)
			sig.Methods = append(sig.Methods, MethodSignature{
				Name:       m.Name,
				Formals:    m.Formals,
				ReturnType: m.ReturnType,
			})
		}
		out = append(out, sig)
	}
	return out
}

func WriteSignatures(w io.Writer, sigs []ClassSignature) error {
	return msgpack.NewEncoder(w).Encode(sigs)
}

func ReadSignatures(rd io.Reader) ([]ClassSignature, error) {
	var sigs []ClassSignature
	if err := msgpack.NewDecoder(rd).Decode(&sigs); err != nil {
		return nil, err
	}
	return sigs, nil
}
