package sched

import "runtime"

// Yield gives up the processor so other runnable tasks, including producers
// of readiness, get a chance to run.
func Yield() {
	runtime.Gosched()
}
