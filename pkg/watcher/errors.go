package watcher

import (
	"fmt"
)

// AdapterPanic records a panic raised inside an adapter call. It is logged
// and counted in the Result; it never escapes the watcher.
type AdapterPanic struct {
	Adapter string
	Op      string
	Value   interface{}
}

func (e *AdapterPanic) Error() string {
	return fmt.Sprintf("adapter %s panicked in %s: %v", e.Adapter, e.Op, e.Value)
}
