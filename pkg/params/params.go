// Package params builds ordered query-parameter lists. Torn query strings
// are assembled from explicit (name, value) pairs so the serialization
// order is deterministic and testable, unlike the map-backed url.Values.
package params

import (
	"net/url"
	"strconv"
	"strings"
)

// Pair is one query parameter.
type Pair struct {
	Name  string
	Value string
}

// Params is an ordered list of query parameters. The zero value is ready
// to use.
type Params []Pair

// Add appends a parameter and returns the extended list.
func (p Params) Add(name, value string) Params {
	return append(p, Pair{Name: name, Value: value})
}

// AddInt appends an integer parameter.
func (p Params) AddInt(name string, value int64) Params {
	return p.Add(name, strconv.FormatInt(value, 10))
}

// AddBool appends a boolean parameter as "true"/"false".
func (p Params) AddBool(name string, value bool) Params {
	return p.Add(name, strconv.FormatBool(value))
}

// Get returns the first value for name, or "" if absent.
func (p Params) Get(name string) string {
	for _, pair := range p {
		if pair.Name == name {
			return pair.Value
		}
	}
	return ""
}

// Has reports whether name is present.
func (p Params) Has(name string) bool {
	for _, pair := range p {
		if pair.Name == name {
			return true
		}
	}
	return false
}

// Without returns a copy with every pair whose name matches one of the
// given names removed. Order of the remaining pairs is preserved.
func (p Params) Without(names ...string) Params {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	out := make(Params, 0, len(p))
	for _, pair := range p {
		if !drop[pair.Name] {
			out = append(out, pair)
		}
	}
	return out
}

// Encode serializes the parameters as a percent-encoded query string in
// list order, without a leading "?". Returns "" for an empty list.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}

	var b strings.Builder
	for i, pair := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(pair.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pair.Value))
	}
	return b.String()
}

// FromQuery converts parsed URL query values into ordered Params. The
// rawQuery string determines the order; values that fail to decode are
// skipped.
func FromQuery(rawQuery string) Params {
	var out Params
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		decodedName, err := url.QueryUnescape(name)
		if err != nil {
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		out = append(out, Pair{Name: decodedName, Value: decodedValue})
	}
	return out
}
