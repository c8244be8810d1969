// Package scoring turns a classified call graph into ranked risk warnings
// and a worst-case execution path. It reads the graph; the only writes are
// the two derived fields it enriches in place.
package scoring

import "txlens/internal/classify"

// Severity table on a 1-10 scale. Ordering encodes how directly each pattern
// produces lock contention: a full-scan delete beats everything, declaration
// hazards beat schema exposure.
var severities = map[classify.Flag]int{
	classify.FlagTableScan:       10,
	classify.FlagRequiresNewInTx: 9,
	classify.FlagCascade:         8,
	classify.FlagExternalHTTP:    8,
	classify.FlagExternalMQ:      7,
	classify.FlagEarlyInsertLock: 7,
	classify.FlagExplicitFlush:   6,
	classify.FlagEagerFetch:      5,
}

var titles = map[classify.Flag]string{
	classify.FlagTableScan:       "Query filters on a non-indexed field",
	classify.FlagRequiresNewInTx: "REQUIRES_NEW inside an open transaction",
	classify.FlagCascade:         "Cascading write amplification",
	classify.FlagExternalHTTP:    "HTTP call while holding a transaction",
	classify.FlagExternalMQ:      "Broker publish while holding a transaction",
	classify.FlagEarlyInsertLock: "Insert-time lock from identity generation",
	classify.FlagExplicitFlush:   "Explicit flush forces early SQL",
	classify.FlagEagerFetch:      "Eager collection fetch",
}

var descriptions = map[classify.Flag]string{
	classify.FlagTableScan: "The filtered field has no index, so the statement scans the table " +
		"and holds gap or row locks across every row it touches. Concurrent writers on the same " +
		"table will queue behind it.",
	classify.FlagRequiresNewInTx: "REQUIRES_NEW suspends the caller's transaction and opens a " +
		"second one on another connection. Locks held by the outer transaction stay held while " +
		"the inner one competes for the same rows, which deadlocks under write contention.",
	classify.FlagCascade: "Cascade or orphan-removal settings turn one repository write into a " +
		"fan-out of dependent-row statements, widening the lock footprint of the transaction.",
	classify.FlagExternalHTTP: "A synchronous HTTP round trip keeps the surrounding transaction " +
		"and its locks open for the full network latency, including timeouts.",
	classify.FlagExternalMQ: "Publishing to a broker inside the transaction ties lock lifetime " +
		"to broker latency, and the message escapes even when the transaction rolls back.",
	classify.FlagEarlyInsertLock: "Identity-column key generation forces the INSERT at persist " +
		"time instead of at commit-ordered flush, taking row locks earlier and holding them longer.",
	classify.FlagExplicitFlush: "An explicit flush pushes pending SQL to the database " +
		"mid-transaction, acquiring locks before the commit point where they would otherwise land.",
	classify.FlagEagerFetch: "An eagerly-fetched collection loads the full association on every " +
		"parent load, multiplying statements and read locks inside the transaction.",
}

// Severity returns the 1-10 severity of a flag, 0 for unknown flags.
func Severity(f classify.Flag) int {
	return severities[f]
}

// Title returns the one-line finding title for a flag.
func Title(f classify.Flag) string {
	return titles[f]
}

// Description returns the finding explanation for a flag.
func Description(f classify.Flag) string {
	return descriptions[f]
}

// externalFlag reports whether a flag describes outbound I/O. External flags
// only warrant a warning when the method runs inside a transaction scope.
func externalFlag(f classify.Flag) bool {
	return f == classify.FlagExternalHTTP || f == classify.FlagExternalMQ
}
