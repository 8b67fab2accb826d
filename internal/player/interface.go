package player

// Store defines the interface for interacting with the player roster.
type Store interface {
	UpsertPlayer(playerID, nickname string) error
	UpsertPlayers(players []Info) error
	GetPlayer(playerID string) (*Info, error)
	IsKnownPlayer(playerID string) bool
	// SoftDelete marks the player deleted without removing the row; points
	// history must survive the account.
	SoftDelete(playerID string) error
	Leaderboard(limit int) ([]Info, error)
}
