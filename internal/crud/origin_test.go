package crud

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrigin_BeginEnd(t *testing.T) {
	var o Origin
	assert.Equal(t, Idle, o.State())
	assert.Equal(t, "idle", o.State().String())

	assert.True(t, o.Begin())
	assert.True(t, o.Pending())
	assert.False(t, o.Begin())

	o.End()
	assert.False(t, o.Pending())
	assert.True(t, o.Begin())
}

func TestOrigin_ConcurrentBeginAdmitsOne(t *testing.T) {
	var o Origin
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if o.Begin() {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted.Load())
}
