// Package ordered provides small deterministic-iteration helpers for the
// set- and map-shaped collections the optimizer builds during SSA
// conversion (ssaform.go: SSA variable order and dominator-child order). Go map iteration
// order is randomized; spec §8 property 6 ("idempotent reruns produce
// byte-identical output") requires every pass to walk such collections in
// a fixed order instead.
package ordered

import "sort"

// Sort sorts s in place by <, the common case for a []NodeIndex or
// []LocalID-free slice of a naturally ordered type.
func Sort[T ~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~string](s []T) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K ~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	Sort(keys)
	return keys
}

// Keys returns the keys of m ordered by less, for key types (like a
// compound (id, depth) struct) with no built-in total order.
func Keys[K comparable, V any](m map[K]V, less func(a, b K) bool) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}
