// Package combine implements the result combinators (C4): set-union,
// logical-OR, and void completeness, exactly as enumerated in §4.3.
//
// This package is deliberately standard-library only. Nothing in the
// corpus offers a generic ordered-set/OR-reduce primitive worth a
// dependency for what amounts to a handful of lines of map-keyed
// deduplication and boolean folding per combinator; every dependency
// wired elsewhere in this module earns its place by serving a concern a
// hand-rolled version would get wrong (RPC framing, structured
// configuration, a real scheduler). Plain Go does these three correctly
// and is what the teacher repo itself reaches for its own in-process
// aggregation (ShardedExecutor's slice merge).
package combine

// SetUnion collapses lists of comparable values from multiple shards into
// a duplicate-free aggregate. Order of the returned slice is unspecified;
// callers must not depend on it.
func SetUnion[T comparable](lists [][]T) []T {
	seen := make(map[T]struct{})
	var out []T
	for _, list := range lists {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// SetUnionBy collapses a flat list of items into a duplicate-free
// aggregate keyed by keyFn, used for pair-valued results (⟨component,
// accessLevel⟩, ⟨entityType, entity⟩) where the pair itself is the
// deduplication key.
func SetUnionBy[T any, K comparable](items []T, keyFn func(T) K) []T {
	seen := make(map[K]struct{})
	var out []T
	for _, item := range items {
		k := keyFn(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// OrAny folds a list of per-shard booleans with logical OR: true iff at
// least one is true.
func OrAny(results []bool) bool {
	for _, r := range results {
		if r {
			return true
		}
	}
	return false
}

// Void folds a list of per-shard mutation errors into a single
// acknowledgement: nil iff every shard succeeded, otherwise the first
// non-nil error encountered.
func Void(results []error) error {
	for _, err := range results {
		if err != nil {
			return err
		}
	}
	return nil
}
