package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"supervisor/internal/logging"
)

func TestEmitterDeliversInRegistrationOrder(t *testing.T) {
	e := NewEmitter(logging.Nop())

	var order []int
	e.On("topic", func(any) { order = append(order, 1) })
	e.On("topic", func(any) { order = append(order, 2) })
	e.On("other", func(any) { order = append(order, 99) })

	e.Emit("topic", "payload")

	assert.Equal(t, []int{1, 2}, order)
}

func TestEmitterPassesValue(t *testing.T) {
	e := NewEmitter(logging.Nop())

	var got any
	e.On("topic", func(v any) { got = v })
	e.Emit("topic", 42)

	assert.Equal(t, 42, got)
}

func TestEmitterNoListeners(t *testing.T) {
	e := NewEmitter(logging.Nop())
	assert.NotPanics(t, func() { e.Emit("nobody", "payload") })
}

func TestEmitterSurvivesPanickingListener(t *testing.T) {
	e := NewEmitter(logging.Nop())

	calls := 0
	e.On("topic", func(any) { panic("boom") })
	e.On("topic", func(any) { calls++ })

	assert.NotPanics(t, func() { e.Emit("topic", nil) })
	assert.Equal(t, 1, calls, "listeners after the panicking one still run")
}

func TestEmitterConcurrentEmitAndOn(t *testing.T) {
	e := NewEmitter(logging.Nop())

	var mu sync.Mutex
	count := 0
	e.On("topic", func(any) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e.Emit("topic", j)
			}
		}()
		go func() {
			defer wg.Done()
			e.On("quiet", func(any) {})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 8*50, count)
}
