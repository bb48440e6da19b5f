package memdb

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/taskboard-api/databases"
	"github.com/linesmerrill/taskboard-api/models"
)

type invitationDoc models.Invitation

func (d invitationDoc) clone() invitationDoc {
	out := d
	if d.BoardInvitation != nil {
		bi := *d.BoardInvitation
		out.BoardInvitation = &bi
	}
	if d.UpdatedAt != nil {
		t := *d.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

type invitationRepo struct {
	s *Store
}

var _ databases.InvitationDatabase = (*invitationRepo)(nil)

func (r *invitationRepo) InsertOne(ctx context.Context, invitation models.Invitation) (primitive.ObjectID, error) {
	if err := alive(ctx); err != nil {
		return primitive.NilObjectID, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	invitation.ID = newID(invitation.ID)
	if _, ok := r.s.invitations.docs[invitation.ID]; ok {
		return primitive.NilObjectID, duplicateKey("invitations._id")
	}
	r.s.invitations.insert(r.s, invitation.ID, invitationDoc(invitation))
	return invitation.ID, nil
}

func (r *invitationRepo) FindOne(ctx context.Context, invitationID primitive.ObjectID) (*models.Invitation, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	doc, ok := r.s.invitations.get(invitationID)
	if !ok || doc.Destroy {
		return nil, mongo.ErrNoDocuments
	}
	inv := models.Invitation(doc)
	return &inv, nil
}

func (r *invitationRepo) FindByInvitee(ctx context.Context, inviteeID primitive.ObjectID) ([]models.InvitationView, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	docs := r.s.invitations.list(func(i invitationDoc) bool { return i.InviteeID == inviteeID && !i.Destroy })
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })

	views := make([]models.InvitationView, 0, len(docs))
	for _, d := range docs {
		view := models.InvitationView{Invitation: models.Invitation(d)}
		if u, ok := r.s.users.get(d.InviterID); ok {
			view.Inviter = models.User(u).Summary()
		}
		if u, ok := r.s.users.get(d.InviteeID); ok {
			view.Invitee = models.User(u).Summary()
		}
		if d.BoardInvitation != nil {
			if b, ok := r.s.boards.get(d.BoardInvitation.BoardID); ok {
				view.Board = &models.BoardSummary{ID: b.ID, Title: b.Title, Slug: b.Slug, Type: b.Type}
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (r *invitationRepo) UpdateStatus(ctx context.Context, invitationID primitive.ObjectID, from, to string) (*models.Invitation, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, ok := r.s.invitations.get(invitationID)
	if !ok || doc.Destroy || doc.BoardInvitation == nil || doc.BoardInvitation.Status != from {
		return nil, mongo.ErrNoDocuments
	}
	doc.BoardInvitation.Status = to
	t := now()
	doc.UpdatedAt = &t
	r.s.invitations.replace(invitationID, doc)
	inv := models.Invitation(doc)
	return &inv, nil
}

type userDoc models.User

func (d userDoc) clone() userDoc {
	out := d
	if d.UpdatedAt != nil {
		t := *d.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

type userRepo struct {
	s *Store
}

var _ databases.UserDatabase = (*userRepo)(nil)

// InsertOne enforces the unique email index the mongo deployment carries
func (r *userRepo) InsertOne(ctx context.Context, user models.User) (primitive.ObjectID, error) {
	if err := alive(ctx); err != nil {
		return primitive.NilObjectID, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users.list(nil) {
		if strings.EqualFold(u.Email, user.Email) {
			return primitive.NilObjectID, duplicateKey("users.email")
		}
	}
	user.ID = newID(user.ID)
	r.s.users.insert(r.s, user.ID, userDoc(user))
	return user.ID, nil
}

func (r *userRepo) FindOne(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	doc, ok := r.s.users.get(userID)
	if !ok || doc.Destroy {
		return nil, mongo.ErrNoDocuments
	}
	user := models.User(doc)
	return &user, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users.list(func(u userDoc) bool { return u.Email == email && !u.Destroy }) {
		user := models.User(u)
		return &user, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *userRepo) Activate(ctx context.Context, email, verifyToken string) (*models.User, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users.list(func(u userDoc) bool {
		return u.Email == email && u.VerifyToken == verifyToken && !u.IsActive && !u.Destroy
	}) {
		t := now()
		u.IsActive = true
		u.VerifyToken = ""
		u.UpdatedAt = &t
		r.s.users.replace(u.ID, u)
		user := models.User(u)
		return &user, nil
	}
	return nil, mongo.ErrNoDocuments
}
