package render

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/samber/lo"
)

type Renderer[T any] interface {
	Render(result T) error
}

// writeJSON writes v as indented JSON
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
