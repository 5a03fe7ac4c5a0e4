package bloomset

import (
	"sync"

	"github.com/alicebob/miniredis/v2"
)

var mockRedisOnce sync.Once

// initMockRedis points the shared client at an in-process miniredis. The
// client is a process-wide singleton, so one server backs every redis test.
func initMockRedis() {
	mockRedisOnce.Do(func() {
		mr, err := miniredis.Run()
		if err != nil {
			panic(err)
		}
		connOptions, err := ParseRedisURI("redis://" + mr.Addr())
		if err != nil {
			panic(err)
		}
		MakeRedisClient(*connOptions)
	})
}
