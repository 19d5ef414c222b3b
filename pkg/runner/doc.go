// Package runner drives a loophound session round by round: manual single
// steps, or a timer-driven auto-progress that repeats rounds on a fixed
// period until a terminal outcome or an explicit, idempotent Stop. Rounds
// always run to synchronous completion, so a timed step can never overlap a
// manual one.
package runner
