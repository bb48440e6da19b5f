package databases

// Repositories bundles every collection the engine reads or writes
type Repositories struct {
	Boards      BoardDatabase
	Columns     ColumnDatabase
	Cards       CardDatabase
	Invitations InvitationDatabase
	Users       UserDatabase
	CardMoves   CardMoveDatabase
	Locks       SchedulerLockDatabase
}

// NewRepositories wires the mongo backed repositories onto one database
func NewRepositories(db DatabaseHelper) *Repositories {
	return &Repositories{
		Boards:      NewBoardDatabase(db),
		Columns:     NewColumnDatabase(db),
		Cards:       NewCardDatabase(db),
		Invitations: NewInvitationDatabase(db),
		Users:       NewUserDatabase(db),
		CardMoves:   NewCardMoveDatabase(db),
		Locks:       NewSchedulerLockDatabase(db),
	}
}
