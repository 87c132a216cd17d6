package llmadapter

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	respond func(prompt string) (string, error)
	calls   int32
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.respond(prompt)
}

func TestGenerateBatch(t *testing.T) {
	t.Run("parses every successful response", func(t *testing.T) {
		fake := &fakeProvider{respond: func(prompt string) (string, error) {
			return fmt.Sprintf(`{"prompt":%q}`, prompt), nil
		}}

		results := GenerateBatch(context.Background(), fake, []string{"a", "b", "c"}, 2)
		require.Len(t, results, 3)
		for i, want := range []string{"a", "b", "c"} {
			require.NoError(t, results[i].Err)
			assert.Equal(t, want, results[i].Object["prompt"])
		}
		assert.Equal(t, int32(3), fake.calls)
	})

	t.Run("one failing prompt does not affect the others", func(t *testing.T) {
		fake := &fakeProvider{respond: func(prompt string) (string, error) {
			if prompt == "bad" {
				return "", assert.AnError
			}
			return `{"ok":true}`, nil
		}}

		results := GenerateBatch(context.Background(), fake, []string{"good", "bad"}, 2)
		require.Len(t, results, 2)
		assert.NoError(t, results[0].Err)
		assert.Error(t, results[1].Err)
	})

	t.Run("malformed JSON is reported per-batch without crashing the run", func(t *testing.T) {
		fake := &fakeProvider{respond: func(prompt string) (string, error) {
			return "not json at all and no braces", nil
		}}

		results := GenerateBatch(context.Background(), fake, []string{"x"}, 1)
		require.Len(t, results, 1)
		assert.Error(t, results[0].Err)
	})

	t.Run("defaults concurrency when given zero", func(t *testing.T) {
		fake := &fakeProvider{respond: func(prompt string) (string, error) { return `{}`, nil }}
		results := GenerateBatch(context.Background(), fake, []string{"a"}, 0)
		require.Len(t, results, 1)
		assert.NoError(t, results[0].Err)
	})
}
