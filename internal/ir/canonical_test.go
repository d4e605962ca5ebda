package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"max int64", Int(math.MaxInt64), "9223372036854775807"},
		{"float", Float(0.5), "0.5"},
		{"integral float keeps fraction", Float(1), "1.0"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"array", Array{String("mother"), String("mary"), Int(3)}, `["mother","mary",3]`},
		{"simple object", Object{"X": String("mary")}, `{"X":"mary"}`},
		{"unbound", Unbound{Name: "Y"}, `{"$var":"Y"}`},
		{"plain map", map[string]any{"b": int64(1), "a": "x"}, `{"a":"x","b":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"null", Null{}},
		{"nan", Float(math.NaN())},
		{"inf", Float(math.Inf(1))},
		{"nested inf", Object{"t": Float(math.Inf(-1))}},
		{"unsupported", struct{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	obj := Object{
		"Z": Object{
			"trueness": Float(0.2),
			"age":      Int(2),
		},
		"A": String("mike"),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"A":"mike","Z":{"age":2,"trueness":0.2}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000: UTF-16 order differs from UTF-8
	obj := Object{
		"\ue000":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)

	// UTF-16 order: 0xD800 < 0xE000, so U+10000 comes first
	expected := "{\"\U00010000\":2,\"\ue000\":1}"
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(String("<a & b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	composed, err := MarshalCanonical(String("caf\u00e9"))
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(String("cafe\u0301"))
	require.NoError(t, err)

	assert.Equal(t, string(composed), string(decomposed))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical(String("a\u2028b"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(result))

	// A literal backslash followed by the text u2028 stays escaped
	result, err = MarshalCanonical(String(`a\u2028b`))
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(result))
}
