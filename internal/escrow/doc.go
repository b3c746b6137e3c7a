// Package escrow holds the campaign escrow ledger's domain model.
//
// A Campaign tracks who donated how much, whether the goal/deadline
// condition has been met, and which single terminal resolution (payout,
// refund-by-deletion) is permitted. The aggregate methods are pure state
// transitions: they validate preconditions against an injected clock,
// mutate the in-memory aggregate, and describe the value transfers the
// caller owes as Payout instructions. Persistence and the actual movement
// of funds happen in the service layer, inside a single storage
// transaction, so every operation is all-or-nothing.
//
// Two invariants shape the model:
//
//   - CurrentAmount always equals the sum of outstanding donor entries.
//     Refunds zero entries in place rather than removing them, keeping
//     indices and history length stable for auditability.
//   - Status transitions are one-way. Active is the only state that
//     accepts mutation; PaidOut, Refunded, and Deleted are terminal.
package escrow
