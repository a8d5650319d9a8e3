// Package driving defines the inbound ports of the ragmem core: the
// interfaces the CLI drives the services through.
package driving
