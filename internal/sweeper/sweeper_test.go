package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/youming-ai/snatch-sub000/internal/observability"
	"github.com/youming-ai/snatch-sub000/internal/observability/mocks"
)

func TestAdd(t *testing.T) {
	sw := New(observability.NopLogger{}, observability.NopMetrics{}, time.Second)

	err := sw.Add(time.Minute, Task{
		Name: "noop",
		Run:  func(context.Context) (int, error) { return 0, nil },
	})
	assert.NoError(t, err)
}

func TestRunTask(t *testing.T) {
	t.Run("success records duration", func(t *testing.T) {
		metrics := &mocks.MockMetrics{}
		metrics.On("RecordSuccess", "sweep").Return()
		metrics.On("RecordDuration", "sweep", mock.AnythingOfType("float64")).Return()

		sw := New(observability.NopLogger{}, metrics, time.Second)
		ran := false
		sw.runTask(Task{
			Name: "cleanup",
			Run: func(context.Context) (int, error) {
				ran = true
				return 3, nil
			},
		})

		require.True(t, ran)
		metrics.AssertExpectations(t)
	})

	t.Run("failure is counted, not fatal", func(t *testing.T) {
		metrics := &mocks.MockMetrics{}
		metrics.On("RecordError", "sweep", "cleanup").Return()

		sw := New(observability.NopLogger{}, metrics, time.Second)
		sw.runTask(Task{
			Name: "cleanup",
			Run: func(context.Context) (int, error) {
				return 0, errors.New("store unavailable")
			},
		})

		metrics.AssertExpectations(t)
	})

	t.Run("task context carries the timeout", func(t *testing.T) {
		sw := New(observability.NopLogger{}, observability.NopMetrics{}, time.Second)
		sw.runTask(Task{
			Name: "deadline-check",
			Run: func(ctx context.Context) (int, error) {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return 0, nil
			},
		})
	})
}
