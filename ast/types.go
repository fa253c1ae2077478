package ast

import "fmt"

// TypeID identifies a class in the registry for one compilation.
type TypeID int32

// NoType is returned for names the registry does not know.
const NoType TypeID = -1

// SelfTypeName is the source spelling of the self type.
const SelfTypeName = "SELF_TYPE"

// ExprType is the static type of an expression. IsSelf marks SELF_TYPE;
// TypeID then holds the enclosing class.
type ExprType struct {
	TypeID TypeID
	IsSelf bool
}

func (t ExprType) String() string {
	if t.IsSelf {
		return fmt.Sprintf("SELF_TYPE(%d)", t.TypeID)
	}
	return fmt.Sprintf("type(%d)", t.TypeID)
}
