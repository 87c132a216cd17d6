package llmadapter

import (
	"context"
	"fmt"
	"sync"
)

// DefaultBatchConcurrency is the fan-out cap spec §5 sets for E-BRI's
// concurrent LLM batch calls ("up to 5 concurrent batch LLM calls for
// E-BRI").
const DefaultBatchConcurrency = 5

// BatchResult pairs a batch's input index with its outcome. Err is set when
// Generate or ParseJSONTolerant failed for that batch; Object is nil in
// that case.
type BatchResult struct {
	Index  int
	Raw    string
	Object map[string]interface{}
	Err    error
}

// GenerateBatch runs Generate over every prompt with bounded concurrency,
// then tolerantly parses each response. A single prompt's failure never
// aborts the others (§4.3: "never crash the engine"; §5: "skip the batch").
func GenerateBatch(ctx context.Context, provider Provider, prompts []string, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(prompts))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, prompt := range prompts {
		wg.Add(1)
		go func(i int, prompt string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = BatchResult{Index: i, Err: ctx.Err()}
				return
			}

			raw, err := provider.Generate(ctx, prompt)
			if err != nil {
				results[i] = BatchResult{Index: i, Err: fmt.Errorf("generate batch %d: %w", i, err)}
				return
			}

			obj, err := ParseJSONTolerant(raw)
			if err != nil {
				results[i] = BatchResult{Index: i, Raw: raw, Err: fmt.Errorf("parse batch %d: %w", i, err)}
				return
			}

			results[i] = BatchResult{Index: i, Raw: raw, Object: obj}
		}(i, prompt)
	}

	wg.Wait()
	return results
}
