// Package domain contains the core entities of the loophound simulation:
// the immutable functional graph, the probe agents that walk it, the run
// state shared between rounds, and the outcome signals reported to hosts.
//
// The domain layer has no dependencies on the runtime or any adapter. It is
// the vocabulary every other package speaks.
package domain
