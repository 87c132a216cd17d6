package llmadapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONTolerant(t *testing.T) {
	t.Run("strict object parses as-is", func(t *testing.T) {
		obj, err := ParseJSONTolerant(`{"bridges":[{"targetIndex":0}]}`)
		require.NoError(t, err)
		assert.Contains(t, obj, "bridges")
	})

	t.Run("strips markdown code fences", func(t *testing.T) {
		obj, err := ParseJSONTolerant("```json\n{\"bridges\":[]}\n```")
		require.NoError(t, err)
		assert.Contains(t, obj, "bridges")
	})

	t.Run("strips stray prose around the object", func(t *testing.T) {
		obj, err := ParseJSONTolerant("Sure, here's the result:\n{\"bridges\":[]}\nLet me know if you need more.")
		require.NoError(t, err)
		assert.Contains(t, obj, "bridges")
	})

	t.Run("repairs a trailing comma inside a fenced object", func(t *testing.T) {
		raw := "```json\n{\"bridges\":[{\"targetIndex\":0,\"bridgeType\":\"conceptual\",\"strength\":0.82,\"explanation\":\"x\",\"bridgeConcepts\":[\"x\",\"y\"],}]}\n```"
		obj, err := ParseJSONTolerant(raw)
		require.NoError(t, err)
		bridges, ok := obj["bridges"].([]interface{})
		require.True(t, ok)
		require.Len(t, bridges, 1)
	})

	t.Run("repairs an unclosed brace", func(t *testing.T) {
		obj, err := ParseJSONTolerant(`{"bridges": [{"targetIndex": 0}]`)
		require.NoError(t, err)
		assert.Contains(t, obj, "bridges")
	})

	t.Run("repairs an unbalanced trailing quote", func(t *testing.T) {
		obj, err := ParseJSONTolerant(`{"explanation": "unterminated}`)
		require.NoError(t, err)
		assert.Contains(t, obj, "explanation")
	})

	t.Run("unrecoverable input returns an excerpted error", func(t *testing.T) {
		_, err := ParseJSONTolerant("the model refused to answer, no object anywhere in this text")
		require.Error(t, err)
	})

	t.Run("empty response returns an error", func(t *testing.T) {
		_, err := ParseJSONTolerant("")
		assert.Error(t, err)
	})
}

func TestExcerpt(t *testing.T) {
	t.Run("short strings pass through unchanged", func(t *testing.T) {
		assert.Equal(t, "short", Excerpt("short"))
	})

	t.Run("long strings are truncated to head and tail", func(t *testing.T) {
		raw := strings.Repeat("a", 2000)
		excerpt := Excerpt(raw)
		assert.Less(t, len(excerpt), len(raw))
		assert.True(t, strings.HasPrefix(excerpt, strings.Repeat("a", 10)))
		assert.True(t, strings.HasSuffix(excerpt, strings.Repeat("a", 10)))
	})
}
