// Package domain contains the core types for the ragmem pipeline:
// source documents discovered on disk, the chunks derived from them,
// the sync records that track what has been uploaded, and the
// retrieval/answer types used at query time.
//
// Types here carry no behaviour beyond small invariant helpers; all
// orchestration lives in the services package.
package domain
