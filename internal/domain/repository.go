package domain

// ProgressStore is the durable record of final outcome per target. Load
// returns an empty map when no prior state exists; Save fully overwrites
// the persisted state in one transaction. The orchestrator calls Save
// after every single target so a crash loses at most the in-flight
// target's result.
type ProgressStore interface {
	// Load reads the full progress mapping keyed by target page URL.
	Load() (map[string]ProgressRecord, error)

	// Save atomically replaces the persisted state with the given mapping.
	Save(records map[string]ProgressRecord) error

	// Stats aggregates record counts by outcome.
	Stats() (*ProgressStats, error)
}

// FailureLedger is the append-only audit trail of failures. An entry,
// once present for an identifier, is never overwritten or removed, not
// even by a later successful retry.
type FailureLedger interface {
	// Record appends an entry for the identifier unless one already exists.
	Record(pageURL, comment string) error

	// All reads the full ledger keyed by target page URL.
	All() (map[string]FailureEntry, error)
}
