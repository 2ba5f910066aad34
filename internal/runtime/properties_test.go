package runtime_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_SequentialVisitsEveryStepOnce(t *testing.T) {
	engine := runtime.NewEngine()
	ctx := context.Background()

	for n := 1; n <= 6; n++ {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("s%d", i)
		}
		doc := testutils.QuestionsDocument(ids...)

		t.Run(fmt.Sprintf("%d steps", n), func(t *testing.T) {
			state, err := engine.Start(ctx, doc)
			require.NoError(t, err)
			assert.Equal(t, 0, runtime.CurrentIndex(state, doc))
			assert.False(t, engine.IsTerminal(state, doc))

			var visited []string
			for !engine.IsTerminal(state, doc) {
				visited = append(visited, state.CurrentStepID)

				next, err := engine.Advance(ctx, state, doc, "")
				require.NoError(t, err)

				if !next.Completed {
					assert.Equal(t, state, engine.Retreat(ctx, next, doc), "retreat undoes a sequential advance")
				}
				state = next
			}
			assert.Equal(t, ids, visited)
		})
	}
}
