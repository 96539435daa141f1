package hook

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var spinSink uint64

func TestFreezeStopsOtherThreads(t *testing.T) {
	var ticks atomic.Uint64
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				ticks.Add(1)
			}
		}
	}()
	require.Eventually(t, func() bool { return ticks.Load() > 0 }, 5*time.Second, time.Millisecond)

	thaw, err := NativeMemory().Freeze()
	require.NoError(t, err)
	before := ticks.Load()
	for i := uint64(0); i < 50_000_000; i++ {
		spinSink += i
	}
	after := ticks.Load()
	thaw()

	assert.Equal(t, before, after)
	assert.Eventually(t, func() bool { return ticks.Load() > after }, 5*time.Second, time.Millisecond)
}
