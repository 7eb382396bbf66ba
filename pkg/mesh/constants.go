package mesh

// Defaults from the original firmware's mesh layer, kept as named
// constants rather than inlined so callers can reason about timing
// budgets without re-deriving them.
const (
	DefaultChannel = 97

	AddrLookupTimeoutMs = 150
	IDLookupTimeoutMs   = 500

	// LookupTimeoutMs bounds Write's whole address-resolution retry loop.
	LookupTimeoutMs = 3000

	DefaultRenewalTimeoutMs = 60000

	// PingCount/PingSpacingMs bound CheckConnection's liveness probe.
	PingCount      = 3
	PingSpacingMs  = 103

	// writeRetryBaseMs/writeRetryStepMs bound Write's address-resolution
	// retry loop: 50ms initial, +50ms per attempt.
	writeRetryBaseMs = 50
	writeRetryStepMs = 50
)
