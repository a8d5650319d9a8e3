// Package driven defines the outbound ports of the ragmem core: the
// interfaces the services depend on for object storage, similarity
// search, text generation, state persistence and credentials. Each
// port is implemented by an adapter under internal/adapters/driven.
package driven
