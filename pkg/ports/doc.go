// Package ports declares the driven-side interfaces of loophound: where run
// state is persisted, where agent programs come from, and how concurrent
// access is coordinated across replicas. Adapters implement these; the core
// never imports an adapter.
package ports
