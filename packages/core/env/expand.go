package env

import (
	"os"
	"regexp"
)

var refPattern = regexp.MustCompile(`\{\{\s*\$([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// LookupFunc resolves a variable name. os.LookupEnv satisfies it.
type LookupFunc func(name string) (string, bool)

// Expander replaces {{$NAME}} references using a LookupFunc and remembers
// the names it could not resolve. Unresolved references are left as written.
type Expander struct {
	lookup  LookupFunc
	missing []string
	seen    map[string]bool
}

// NewExpander returns an Expander over lookup, or over the process
// environment when lookup is nil.
func NewExpander(lookup LookupFunc) *Expander {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Expander{lookup: lookup, seen: make(map[string]bool)}
}

// Expand returns s with every resolvable reference substituted.
func (e *Expander) Expand(s string) string {
	return refPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := refPattern.FindStringSubmatch(ref)[1]
		if v, ok := e.lookup(name); ok {
			return v
		}
		if !e.seen[name] {
			e.seen[name] = true
			e.missing = append(e.missing, name)
		}
		return ref
	})
}

// Missing lists unresolved names in the order they were first seen.
func (e *Expander) Missing() []string {
	return e.missing
}

