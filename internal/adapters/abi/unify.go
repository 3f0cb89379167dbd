package abi

import (
	"fmt"
	"strconv"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/shadow-fork/shadow-cli/internal/domain/abitype"
)

// Unify converts an abitype.Type into the go-ethereum codec type.
//
// The mapping is structural: arrays keep their dimensions, tuples keep their
// member order, and structs become tuples with their field names dropped.
// Function types are rejected at any depth. This file is the only place that
// constructs codec types.
func Unify(t abitype.Type) (ethabi.Type, error) {
	typ, components, err := marshaling(t)
	if err != nil {
		return ethabi.Type{}, err
	}
	codec, err := ethabi.NewType(typ, "", components)
	if err != nil {
		return ethabi.Type{}, fmt.Errorf("failed to build codec type for %s: %w", t, err)
	}
	return codec, nil
}

// UnifyArguments resolves and unifies ABI params into codec arguments.
// Unnamed params get positional names so that topic decoding can key them.
func UnifyArguments(params []abitype.Param) (ethabi.Arguments, error) {
	args := make(ethabi.Arguments, len(params))
	for i, p := range params {
		t, err := abitype.ResolveNamed(p)
		if err != nil {
			return nil, err
		}
		codec, err := Unify(t)
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		name := p.Name
		if name == "" {
			name = "arg" + strconv.Itoa(i)
		}
		args[i] = ethabi.Argument{Name: name, Type: codec, Indexed: p.Indexed}
	}
	return args, nil
}

// marshaling renders t as the type string and component list the codec
// constructor expects: tuples are "tuple" plus components, arrays append
// their suffix to the element's type string.
func marshaling(t abitype.Type) (string, []ethabi.ArgumentMarshaling, error) {
	switch v := t.(type) {
	case abitype.Function:
		return "", nil, abitype.ErrUnsupportedFunctionType
	case abitype.Array:
		elem, components, err := marshaling(v.Elem)
		if err != nil {
			return "", nil, err
		}
		return elem + "[]", components, nil
	case abitype.FixedArray:
		elem, components, err := marshaling(v.Elem)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s[%d]", elem, v.Len), components, nil
	case abitype.Tuple:
		components, err := tupleComponents(v.Elems)
		return "tuple", components, err
	case abitype.Struct:
		components, err := tupleComponents(v.Elems)
		return "tuple", components, err
	default:
		return t.String(), nil, nil
	}
}

func tupleComponents(elems []abitype.Type) ([]ethabi.ArgumentMarshaling, error) {
	components := make([]ethabi.ArgumentMarshaling, len(elems))
	for i, e := range elems {
		typ, nested, err := marshaling(e)
		if err != nil {
			return nil, err
		}
		components[i] = ethabi.ArgumentMarshaling{
			Name:       "field" + strconv.Itoa(i),
			Type:       typ,
			Components: nested,
		}
	}
	return components, nil
}
