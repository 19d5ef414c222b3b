// Package observability exposes Prometheus collectors for the simulation:
// round throughput, outcome tallies, per-round iteration cost and the
// number of agents still walking the graph.
package observability
