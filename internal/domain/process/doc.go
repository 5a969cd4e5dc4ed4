// Package process manages the simulated processes that own descriptor
// tables, and the named FIFO namespace they share.
package process
