package ledger

import "database/sql"

// Ledger is the append-only points accounting for all players. Every mutation
// writes an immutable record and the player's cached total in one
// transaction; mutations for the same player are serialized, different
// players proceed independently.
type Ledger interface {
	// Credit adds amount (must be > 0) to the player's balance and returns
	// the new balance.
	Credit(userID string, amount int64, reason string, ref CauseRef) (int64, error)
	// Debit subtracts amount (must be > 0 and <= current balance) and returns
	// the new balance.
	Debit(userID string, amount int64, reason string, ref CauseRef) (int64, error)
	// CreditWithin is Credit plus the caller's paired writes executed inside
	// the same transaction; either everything commits or nothing does.
	CreditWithin(userID string, amount int64, reason string, ref CauseRef, fn func(*sql.Tx) error) (int64, error)
	// DebitWithin is the debit counterpart of CreditWithin.
	DebitWithin(userID string, amount int64, reason string, ref CauseRef, fn func(*sql.Tx) error) (int64, error)
	// ApplyAll writes every entry plus the caller's paired writes in a single
	// transaction: all of it commits or none of it does. Entries may target
	// different users; an empty batch still runs fn transactionally.
	ApplyAll(entries []Entry, fn func(*sql.Tx) error) error
	// Balance returns the player's current balance.
	Balance(userID string) (int64, error)
	// History returns the player's records newest first. limit/offset make the
	// listing restartable.
	History(userID string, limit, offset int) ([]PointsRecord, error)
}
