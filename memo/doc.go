// Package memo wraps computations so that repeated calls with equal arguments
// are answered from a table instead of being recomputed.
//
// A memoizer is not just a cache in front of a function.
// It is a promise the caller makes about that function:
//
//	→ "Equal arguments always deserve the same answer."
//
// Only successful results are kept. A failing call leaves its key absent, so
// the next call with the same arguments tries again; a transient network error
// is never remembered as the answer.
//
// Features:
//   - New / NewAsync: variadic memoizers for blocking and context-aware operations.
//   - FuncI1 to FuncI4, PureI1O1, PureI2O1, AsyncI1, AsyncI2: typed wrappers.
//   - Canonical, type-tagged keys; arguments may opt in to their own form via Keyer.
//   - Single flight per key: concurrent callers share one underlying call.
//   - Write-once sharded table, owned by exactly one memoizer.
//
// Usage:
//
//	fact := memo.PureI1O1(factorial, memo.Config{Name: "factorial"})
//	fact(10) // computed
//	fact(10) // served from the table
//
// WARNING: the wrapped operation is treated as a pure black box. Memoizing
// something that depends on time or mutable state returns stale answers forever.
package memo
