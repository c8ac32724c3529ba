// Package metadata stores the request metadata attached to API and operation
// declarations.
//
// A Declaration owns a lazily created entry keyed by a fixed set of keys.
// Setting a key merges mapping values (later wins on collision), appends to
// sequence values and replaces scalars. Entries are written while the API is
// declared and only read afterwards, so concurrent calls share them without
// locking.
package metadata
