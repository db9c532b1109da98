// Package types defines the shared domain vocabulary for the client:
// screens, gesture symbols, camera status, and the snapshots pushed to
// the local UI bridge.
//
// These types carry no behavior beyond display helpers; every component
// that owns state exposes it through one of the snapshot structs here so
// the bridge can serialize a consistent view.
package types
