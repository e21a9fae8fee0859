package errors

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSeverityString(t *testing.T) {
	testCases := []struct {
		severity ErrorSeverity
		expected string
	}{
		{ErrorSeverityWarning, "warning"},
		{ErrorSeverityError, "error"},
		{ErrorSeverity(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.severity.String())
		})
	}
}

func TestValidationErrorError(t *testing.T) {
	err := &ValidationError{Field: "boundary", Index: 2, Message: "offset is empty"}
	assert.Equal(t, "boundary 2: offset is empty", err.Error())

	err = &ValidationError{Field: "world", Message: "needs at least one boundary"}
	assert.Equal(t, "world: needs at least one boundary", err.Error())
}

func TestMismatch(t *testing.T) {
	err := Mismatch("got %dx%d, want %dx%d", 2, 3, 3, 3)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.Contains(t, err.Error(), "got 2x3, want 3x3")
}

func TestNewErrorCollector(t *testing.T) {
	collector := NewErrorCollector()

	assert.NotNil(t, collector)
	assert.Empty(t, collector.Problems())
	assert.False(t, collector.HasErrors())
	assert.NoError(t, collector.Err())
}

func TestErrorCollectorWarningsAreNotErrors(t *testing.T) {
	collector := NewErrorCollector()
	collector.Warnf("rocks", 1, "mean is within 1 sigma of max")

	assert.Len(t, collector.Problems(), 1)
	assert.False(t, collector.HasErrors())
	assert.NoError(t, collector.Err())
}

func TestErrorCollectorErr(t *testing.T) {
	collector := NewErrorCollector()
	collector.Addf("boundary", 1, "offset point %d, %d is less than depthRange min", 1, 2)
	collector.AddError(fmt.Errorf("read offsets: %w", ErrDimensionMismatch))
	collector.AddError(nil)

	require.True(t, collector.HasErrors())
	err := collector.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "boundary", ve.Field)
	assert.Equal(t, 1, ve.Index)

	assert.Len(t, collector.ProblemsFor("boundary"), 1)
	assert.Empty(t, collector.ProblemsFor("rocks"))

	collector.Clear()
	assert.False(t, collector.HasErrors())
}

func TestErrorCollectorConcurrent(t *testing.T) {
	collector := NewErrorCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			collector.Addf("layer", i+1, "problem")
		}(i)
	}
	wg.Wait()

	assert.Len(t, collector.Problems(), 50)
}
