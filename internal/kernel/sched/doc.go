// Package sched provides the suspend/resume primitives used by the IPC core.
//
// Goroutines play the role of kernel tasks. A task that cannot make progress
// takes a ticket from a WaitQueue, releases whatever lock it holds, and parks
// on the ticket until a peer calls NotifyAll. Wakes carry no meaning: every
// caller re-evaluates its condition after waking.
//
// Pattern:
//
//	mu.Lock()
//	for {
//		t := q.Prepare()
//		if ready() {
//			break
//		}
//		mu.Unlock()
//		t.Wait()
//		mu.Lock()
//	}
//
// Taking the ticket before checking the condition is what prevents lost
// wakeups: a NotifyAll that lands between the check and Wait closes the
// ticket the caller is about to park on.
package sched
