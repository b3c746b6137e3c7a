// Package storage defines the persistence interfaces for the campaign
// escrow ledger.
//
// It provides a high-level abstraction over the ledger's durable state:
// campaign records, donor entries, the event journal, and wallet account
// balances. Mutations are scoped to a Tx so every ledger operation commits
// or rolls back as one unit. The SQLite implementation lives in the sqlite
// subpackage.
//
// # Error Types
//
// The package defines common error types used across storage implementations:
//   - ErrNotFound: Indicates a requested record is missing.
//   - ErrAccountNotFound, ErrAccountExists: Wallet account lookups/creates.
//   - ErrInsufficientFunds: A debit exceeding the account balance.
package storage
