package abitype

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parse parses a Solidity ABI type string.
//
// Accepted: elementary types (address, bool, string, bytes, function, bytesN,
// intN, uintN, int, uint), parenthesised tuples "(T1,T2)" or "tuple(T1,T2)",
// each followed by any number of "[]" or "[N]" suffixes.
func Parse(s string) (Type, error) {
	t, err := parse(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnparseableType, s, err)
	}
	return t, nil
}

func parse(s string) (Type, error) {
	if s == "" {
		return nil, errors.New("empty type")
	}

	if strings.HasPrefix(s, "tuple(") {
		s = strings.TrimPrefix(s, "tuple")
	}

	var (
		base Type
		rest string
	)
	if s[0] == '(' {
		end, err := matchingParen(s)
		if err != nil {
			return nil, err
		}
		elems, err := parseList(s[1:end])
		if err != nil {
			return nil, err
		}
		base = Tuple{Elems: elems}
		rest = s[end+1:]
	} else {
		name := s
		if i := strings.IndexByte(s, '['); i >= 0 {
			name, rest = s[:i], s[i:]
		}
		elementary, err := parseElementary(name)
		if err != nil {
			return nil, err
		}
		base = elementary
	}

	return applySuffixes(base, rest)
}

// ApplyArraySuffix wraps t in the array dimensions of suffix, e.g. "[2][]".
// Dimensions apply left to right, so T[2][] is a dynamic array of T[2].
func ApplyArraySuffix(t Type, suffix string) (Type, error) {
	wrapped, err := applySuffixes(t, suffix)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnparseableType, t.String()+suffix, err)
	}
	return wrapped, nil
}

func applySuffixes(t Type, rest string) (Type, error) {
	for rest != "" {
		if rest[0] != '[' {
			return nil, fmt.Errorf("unexpected %q after type", rest)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, errors.New("unterminated array dimension")
		}
		dim := rest[1:end]
		if dim == "" {
			t = Array{Elem: t}
		} else {
			n, err := parseSize(dim)
			if err != nil || n == 0 {
				return nil, fmt.Errorf("invalid array length %q", dim)
			}
			t = FixedArray{Elem: t, Len: n}
		}
		rest = rest[end+1:]
	}
	return t, nil
}

func parseElementary(name string) (Type, error) {
	switch name {
	case "address":
		return Address{}, nil
	case "bool":
		return Bool{}, nil
	case "string":
		return String{}, nil
	case "bytes":
		return Bytes{}, nil
	case "function":
		return Function{}, nil
	case "int":
		return Int{Bits: 256}, nil
	case "uint":
		return Uint{Bits: 256}, nil
	}

	switch {
	case strings.HasPrefix(name, "bytes"):
		n, err := parseSize(strings.TrimPrefix(name, "bytes"))
		if err != nil || n < 1 || n > 32 {
			return nil, fmt.Errorf("invalid fixed bytes size in %q", name)
		}
		return FixedBytes{Size: n}, nil
	case strings.HasPrefix(name, "uint"):
		n, err := parseBits(strings.TrimPrefix(name, "uint"))
		if err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}
		return Uint{Bits: n}, nil
	case strings.HasPrefix(name, "int"):
		n, err := parseBits(strings.TrimPrefix(name, "int"))
		if err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}
		return Int{Bits: n}, nil
	}

	return nil, fmt.Errorf("unknown type %q", name)
}

func parseBits(s string) (int, error) {
	n, err := parseSize(s)
	if err != nil || n < 8 || n > 256 || n%8 != 0 {
		return 0, fmt.Errorf("invalid integer width %q", s)
	}
	return n, nil
}

// parseSize parses a canonical decimal number (no sign, no leading zeros)
func parseSize(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if strconv.Itoa(n) != s {
		return 0, fmt.Errorf("non-canonical number %q", s)
	}
	return n, nil
}

func matchingParen(s string) (int, error) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, errors.New("unbalanced parentheses")
}

// parseList parses the comma separated members of a tuple
func parseList(inner string) ([]Type, error) {
	if strings.TrimSpace(inner) == "" {
		return []Type{}, nil
	}

	var (
		elems []Type
		depth int
		start int
	)
	for i := 0; i <= len(inner); i++ {
		if i < len(inner) {
			switch inner[i] {
			case '(':
				depth++
				continue
			case ')':
				depth--
				continue
			case ',':
				if depth != 0 {
					continue
				}
			default:
				continue
			}
		}
		elem, err := parse(strings.TrimSpace(inner[start:i]))
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		start = i + 1
	}
	return elems, nil
}
