// Package types defines the help-desk entities (Category, Question,
// CachedMessage), the storage interfaces every backend implements, the
// per-guild configuration, and the sentinel errors shared across the
// heapoverflow services.
//
// Entity methods modify the struct in memory only; callers persist changes
// through the matching table of a Store.
package types
