package canonical

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_Basic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", -100, "-100"},
		{"bool", true, "true"},
		{"empty array", []string{}, "[]"},
		{"empty object", map[string]int{}, "{}"},
		{"array of ints", []int{1, 2, 3}, "[1,2,3]"},
		{"decimal is a string", decimal.RequireFromString("3.50"), `"3.5"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshal_SortsStructFields(t *testing.T) {
	type line struct {
		Quantity int    `json:"quantity"`
		ID       string `json:"id"`
		Name     string `json:"name"`
	}
	result, err := Marshal(map[string]any{
		"zebra": []line{{Quantity: 2, ID: "1", Name: "Pen"}},
		"alpha": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":1,"zebra":[{"id":"1","name":"Pen","quantity":2}]}`, string(result))
}

func TestMarshal_UTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000: UTF-16 order differs from UTF-8.
	obj := map[string]int{
		"\uE000":     1,
		"\U00010000": 2,
	}

	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshal_NoHTMLEscape(t *testing.T) {
	result, err := Marshal("Snacks & <Drinks>")
	require.NoError(t, err)
	assert.Equal(t, `"Snacks & <Drinks>"`, string(result))
}

func TestMarshal_RejectsFloats(t *testing.T) {
	_, err := Marshal(map[string]any{"price": 3.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

func TestMarshal_RejectsNull(t *testing.T) {
	_, err := Marshal(map[string]any{"x": nil})
	require.Error(t, err)

	var s []string
	_, err = Marshal(s)
	require.Error(t, err)
}

func TestMarshal_NFCNormalization(t *testing.T) {
	// "e" + combining acute accent becomes the precomposed form.
	result, err := Marshal("Cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"Caf\u00e9\"", string(result))
}

func TestMarshal_StringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshal_LineSeparatorsNotEscaped(t *testing.T) {
	result, err := Marshal("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))
	assert.NotContains(t, string(result), "\\u2028")
	assert.NotContains(t, string(result), "\\u2029")
}

func TestMarshal_LiteralBackslashU2028(t *testing.T) {
	// Literal text "\u2028" (backslash, u, 2, 0, 2, 8) stays escaped.
	result, err := Marshal("literal \\u2028 and actual \u2028")
	require.NoError(t, err)
	assert.Equal(t, "\"literal \\\\u2028 and actual \u2028\"", string(result))
}

func TestMarshal_Idempotent(t *testing.T) {
	v := map[string]any{"b": []any{"x", 1}, "a": map[string]any{"d": true, "c": "y"}}
	first, err := Marshal(v)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompareKeys(t *testing.T) {
	assert.Equal(t, 0, CompareKeys("a", "a"))
	assert.Equal(t, -1, CompareKeys("a", "b"))
	assert.Equal(t, -1, CompareKeys("a", "ab"))
	assert.Equal(t, 1, CompareKeys("\uE000", "\U00010000"))
}

func FuzzMarshalIdempotent(f *testing.F) {
	f.Add(`{"a":1,"b":"test"}`)
	f.Add(`[1,2,3]`)
	f.Add(`"hello"`)
	f.Add(`42`)
	f.Add(`true`)
	f.Add(`{"nested":{"deep":{"value":123}}}`)
	f.Add(`{"é":"é","<b>":" "}`)

	f.Fuzz(func(t *testing.T, jsonStr string) {
		first, err := Marshal(json.RawMessage(jsonStr))
		if err != nil {
			t.Skip() // invalid JSON, floats or null
		}

		second, err := Marshal(json.RawMessage(first))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second), "canonical output must be stable")
	})
}
