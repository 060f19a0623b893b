package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-cecore/cecore/input/action"
)

func TestManager_Debouncing(t *testing.T) {
	tests := []struct {
		name           string
		action         action.Action
		timeBetween    time.Duration
		expectDebounce bool
	}{
		{
			name:           "pause rapid press - should debounce",
			action:         action.EmulatorPauseToggle,
			timeBetween:    50 * time.Millisecond,
			expectDebounce: true,
		},
		{
			name:           "pause slow press - should not debounce",
			action:         action.EmulatorPauseToggle,
			timeBetween:    200 * time.Millisecond,
			expectDebounce: false,
		},
		{
			name:           "step rapid press - should not debounce",
			action:         action.DebugStepIn,
			timeBetween:    time.Millisecond,
			expectDebounce: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			clock := time.Unix(1000, 0)
			m.now = func() time.Time { return clock }

			calls := 0
			m.On(tt.action, func() { calls++ })

			assert.True(t, m.Trigger(tt.action))
			clock = clock.Add(tt.timeBetween)
			handled := m.Trigger(tt.action)

			assert.Equal(t, !tt.expectDebounce, handled)
			if tt.expectDebounce {
				assert.Equal(t, 1, calls)
			} else {
				assert.Equal(t, 2, calls)
			}
		})
	}
}

func TestManager_MultipleCallbacks(t *testing.T) {
	m := NewManager()
	var order []string
	m.On(action.DebugStepOver, func() { order = append(order, "first") })
	m.On(action.DebugStepOver, func() { order = append(order, "second") })

	assert.True(t, m.Trigger(action.DebugStepOver))
	assert.Equal(t, []string{"first", "second"}, order)
	assert.False(t, m.Trigger(action.DebugStepOut), "no callbacks registered")
}

func TestDefaultKeyMap(t *testing.T) {
	act, ok := GetDefaultMapping("o")
	assert.True(t, ok)
	assert.Equal(t, action.DebugStepOver, act)
	assert.Equal(t, "step-over", act.String())

	_, ok = GetDefaultMapping("z")
	assert.False(t, ok)
}
