package testsupport

import (
	"sync"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/goliatone/go-authflow/pkg/flows"
	"github.com/goliatone/go-authflow/pkg/model"
)

// Epoch is the start time of fake clocks built by NewClock.
var Epoch = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

// NewClock returns a fake clock frozen at Epoch.
func NewClock() *testingclock.FakeClock {
	return testingclock.NewFakeClock(Epoch)
}

// MustFlow loads id from the embedded flow definitions.
func MustFlow(t testing.TB, id string) model.FlowDefinition {
	t.Helper()

	store, err := flows.Default()
	if err != nil {
		t.Fatalf("load embedded flows: %v", err)
	}
	flow, err := store.MustFlow(id)
	if err != nil {
		t.Fatalf("flow %q: %v", id, err)
	}
	return flow
}

// Counter counts invocations of the function returned by Func.
type Counter struct {
	mu sync.Mutex
	n  int
}

// Func returns a callback incrementing the counter.
func (c *Counter) Func() func() {
	return func() {
		c.mu.Lock()
		c.n++
		c.mu.Unlock()
	}
}

// Count returns the number of invocations.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
