package abitype

import (
	"fmt"
	"strings"
)

// Resolve converts a JSON ABI parameter into a Type.
//
// A parameter with components is a tuple: its components are resolved first and
// the array suffix of the outer type string ("tuple[]", "tuple[2][]") is applied
// afterwards. Parameters without components go through Parse.
func Resolve(p Param) (Type, error) {
	return resolve(p, false)
}

// ResolveNamed is Resolve, except that component groups whose internalType is
// "struct X.Y" resolve to a Struct named Y carrying the component names.
func ResolveNamed(p Param) (Type, error) {
	return resolve(p, true)
}

// ResolveAll resolves params in order
func ResolveAll(params []Param) ([]Type, error) {
	types := make([]Type, len(params))
	for i, p := range params {
		t, err := Resolve(p)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func resolve(p Param, named bool) (Type, error) {
	if len(p.Components) == 0 {
		return Parse(p.Type)
	}

	suffix, ok := strings.CutPrefix(strings.TrimSpace(p.Type), "tuple")
	if !ok {
		return nil, fmt.Errorf("%w %q: components given for non-tuple type", ErrUnparseableType, p.Type)
	}

	elems := make([]Type, len(p.Components))
	fields := make([]string, len(p.Components))
	for i, c := range p.Components {
		t, err := resolve(c, named)
		if err != nil {
			return nil, err
		}
		elems[i] = t
		fields[i] = c.Name
	}

	var base Type = Tuple{Elems: elems}
	if name, isStruct := structName(p.InternalType); named && isStruct {
		base = Struct{Name: name, Fields: fields, Elems: elems}
	}

	return ApplyArraySuffix(base, suffix)
}

// structName extracts Y from an internalType of the form "struct X.Y[]"
func structName(internalType string) (string, bool) {
	rest, ok := strings.CutPrefix(internalType, "struct ")
	if !ok {
		return "", false
	}
	if i := strings.IndexByte(rest, '['); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndexByte(rest, '.'); i >= 0 {
		rest = rest[i+1:]
	}
	return rest, rest != ""
}
