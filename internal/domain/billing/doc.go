// Package billing implements the pharmacy counter invoice engine.
//
// A Bill is an in-memory working invoice: a header (company, customer,
// warehouse, department, patient, doctor, posting date/time, transaction
// type), a table of lines, an optional document-level discount, and the cash
// tendered. Every mutation goes through the aggregate and triggers a full
// recalculation, so the totals are always consistent with the inputs.
//
// Numeric line fields hold the operator's raw keystrokes verbatim; math
// parses them leniently, treating unparsable text as zero. Money amounts are
// shopspring decimals rounded half-up to two places at each per-line step.
//
// ValidateForSubmission applies the submission checks in a fixed order and
// returns the first failure as a shared.DomainError with a stable code.
package billing
