// Package purge implements the disk-space-triggered eviction engine.
//
// A space monitor calls Engine.Trigger whenever free space is observed below
// Engine.CurrentLimitBytes. Bursts of triggers collapse into a single pending
// wake-up; one background worker then runs a purge cycle that evicts the
// oldest eligible candidates until free space reaches the policy target or
// no candidates remain.
//
// The package decides nothing about eligibility and performs no I/O of its
// own. Every external effect goes through the collaborator interfaces in
// interfaces.go:
//
//	PolicyProvider   -> enabled flag and thresholds, read fresh per pass
//	SpaceProbe       -> live free-space measurement
//	CandidateSource  -> oldest-first eligible units
//	EvictionTarget   -> deletes one unit
//	ConsistencyFlush -> settles pending state before candidates are queried
//
// State machine:
//
//	IDLE --Trigger--> PENDING --worker wakes--> RUNNING --cycle done--> IDLE
//
// Trigger is a no-op in PENDING and RUNNING; no queue of triggers is kept.
package purge
