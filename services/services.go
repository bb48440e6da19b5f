package services

import (
	"time"

	"github.com/linesmerrill/taskboard-api/databases"
)

// Services bundles every operation the API exposes
type Services struct {
	Boards      *BoardService
	Columns     *ColumnService
	Cards       *CardService
	Moves       *MoveCoordinator
	Invitations *InvitationService
	Accounts    *AccountService
	Reconciler  *Reconciler
}

// New wires the services onto one set of repositories
func New(repos *databases.Repositories, notifier Notifier, tokens *TokenIssuer) *Services {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Services{
		Boards:      &BoardService{Repos: repos},
		Columns:     &ColumnService{Repos: repos},
		Cards:       &CardService{Repos: repos},
		Moves:       &MoveCoordinator{Repos: repos, Timeout: DefaultMoveTimeout},
		Invitations: &InvitationService{Repos: repos, Notifier: notifier},
		Accounts:    &AccountService{Repos: repos, Tokens: tokens},
		Reconciler:  &Reconciler{Repos: repos},
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
