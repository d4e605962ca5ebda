package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// TagsKey is the reserved answer key under which merged tags are reported.
// Variable names start with an upper-case letter or '_', so it never
// collides with a variable.
const TagsKey = "tags"

// Answer is one solution of a query: the goal's variables by name, and the
// tag values of the derivation.
type Answer struct {
	Vars Object
	Tags Object
}

// Object flattens the answer into {Var: value, ..., "tags": {...}}.
// The tags key is omitted when the derivation carries no tags.
func (a Answer) Object() Object {
	obj := make(Object, len(a.Vars)+1)
	for k, v := range a.Vars {
		obj[k] = v
	}
	if len(a.Tags) > 0 {
		obj[TagsKey] = a.Tags
	}
	return obj
}

// Key returns the canonical identity of the answer (see AnswerKey).
func (a Answer) Key() (string, error) {
	return AnswerKey(a.Object())
}

// Get returns the value bound to a variable name.
func (a Answer) Get(name string) (Value, bool) {
	v, ok := a.Vars[name]
	return v, ok
}

// Tag returns a tag value by name.
func (a Answer) Tag(name string) (Value, bool) {
	v, ok := a.Tags[name]
	return v, ok
}

// MarshalJSON emits the flattened object form.
func (a Answer) MarshalJSON() ([]byte, error) {
	return a.Object().MarshalJSON()
}

// String renders the answer for humans, e.g. "X = mary, Y = joseph".
// An answer without variables renders as "true".
func (a Answer) String() string {
	var parts []string
	for _, k := range a.Vars.SortedKeys() {
		parts = append(parts, k+" = "+Format(a.Vars[k]))
	}
	s := "true"
	if len(parts) > 0 {
		s = strings.Join(parts, ", ")
	}
	if len(a.Tags) > 0 {
		s += " " + Format(a.Tags)
	}
	return s
}

// Format renders a value in the text syntax of the term language.
func Format(v Value) string {
	switch val := v.(type) {
	case String:
		return formatSymbol(string(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		b, err := marshalFloat(float64(val))
		if err != nil {
			return fmt.Sprint(float64(val))
		}
		return string(b)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Array:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = Format(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Object:
		parts := make([]string, 0, len(val))
		for _, k := range val.SortedKeys() {
			parts = append(parts, k+": "+Format(val[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Unbound:
		return val.Name
	case Null:
		return "null"
	default:
		return fmt.Sprint(v)
	}
}

func formatSymbol(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r == ',' || r == '(' || r == ')' || r == '{' || r == '}' || r == '"' || r == ' ' || r == '\t' || r == '\n' {
			return strconv.Quote(s)
		}
	}
	return s
}
