// Package store persists the manager's settings (switch position and last
// used credentials) in a typed key-value store.
//
// Three engines are available behind the same Store interface: memory,
// bbolt (JSON values in a "settings" bucket) and badger (msgpack values).
// Every successful write publishes an Event carrying the writer's sender
// so other components can react to changes they did not make.
package store
