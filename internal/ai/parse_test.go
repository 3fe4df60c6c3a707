package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence on same line", "```{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, StripFences(tc.in))
		})
	}
}

func TestParseJSONRequiredKeys(t *testing.T) {
	doc, err := ParseJSON(`{"intent_type":"inquiry","confidence":0.8}`, "intent_type", "confidence")
	require.NoError(t, err)
	require.Equal(t, "inquiry", JSONString(doc, "intent_type"))
	require.InDelta(t, 0.8, JSONFloat(doc, "confidence"), 1e-9)

	_, err = ParseJSON(`{"intent_type":"inquiry"}`, "intent_type", "confidence")
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Contains(t, parseErr.Reason, "confidence")
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := ParseJSON("the model wrote prose instead")
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestJSONHelpers(t *testing.T) {
	doc, err := ParseJSON(`{"flag":true,"count":42,"label":"x","wrong":"notbool"}`)
	require.NoError(t, err)
	require.True(t, JSONBool(doc, "flag"))
	require.False(t, JSONBool(doc, "wrong"))
	require.False(t, JSONBool(doc, "absent"))
	require.InDelta(t, 42, JSONFloat(doc, "count"), 1e-9)
	require.Zero(t, JSONFloat(doc, "label"))
	require.Equal(t, "x", JSONString(doc, "label"))
	require.Empty(t, JSONString(doc, "count"))
}
