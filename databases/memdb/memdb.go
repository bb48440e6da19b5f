// Package memdb keeps every collection in process memory behind the same
// repository interfaces as the mongo store. It backs `serve --in-memory`
// and the service tests.
package memdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/taskboard-api/databases"
)

// Store is a mutex guarded set of collections
type Store struct {
	mu          sync.RWMutex
	seq         int
	boards      *collection[boardDoc]
	columns     *collection[columnDoc]
	cards       *collection[cardDoc]
	invitations *collection[invitationDoc]
	users       *collection[userDoc]
	moves       *collection[moveDoc]
	locks       map[string]lockDoc
}

// New returns an empty store
func New() *Store {
	return &Store{
		boards:      newCollection[boardDoc](),
		columns:     newCollection[columnDoc](),
		cards:       newCollection[cardDoc](),
		invitations: newCollection[invitationDoc](),
		users:       newCollection[userDoc](),
		moves:       newCollection[moveDoc](),
		locks:       map[string]lockDoc{},
	}
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *databases.Repositories {
	return &databases.Repositories{
		Boards:      &boardRepo{s},
		Columns:     &columnRepo{s},
		Cards:       &cardRepo{s},
		Invitations: &invitationRepo{s},
		Users:       &userRepo{s},
		CardMoves:   &cardMoveRepo{s},
		Locks:       &lockRepo{s},
	}
}

// cloner is satisfied by the document wrappers so stored values never
// alias what callers hold.
type cloner[T any] interface {
	clone() T
}

type record[T any] struct {
	seq int
	doc T
}

// collection keeps insertion order, which stands in for mongo natural order
type collection[T cloner[T]] struct {
	docs map[primitive.ObjectID]record[T]
}

func newCollection[T cloner[T]]() *collection[T] {
	return &collection[T]{docs: map[primitive.ObjectID]record[T]{}}
}

func (c *collection[T]) get(id primitive.ObjectID) (T, bool) {
	r, ok := c.docs[id]
	if !ok {
		var zero T
		return zero, false
	}
	return r.doc.clone(), true
}

func (c *collection[T]) insert(s *Store, id primitive.ObjectID, doc T) {
	s.seq++
	c.docs[id] = record[T]{seq: s.seq, doc: doc.clone()}
}

func (c *collection[T]) replace(id primitive.ObjectID, doc T) {
	r := c.docs[id]
	r.doc = doc.clone()
	c.docs[id] = r
}

func (c *collection[T]) remove(id primitive.ObjectID) bool {
	if _, ok := c.docs[id]; !ok {
		return false
	}
	delete(c.docs, id)
	return true
}

// list returns the matching documents in insertion order
func (c *collection[T]) list(match func(T) bool) []T {
	recs := make([]record[T], 0, len(c.docs))
	for _, r := range c.docs {
		if match == nil || match(r.doc) {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.doc.clone())
	}
	return out
}

func newID(id primitive.ObjectID) primitive.ObjectID {
	if id.IsZero() {
		return primitive.NewObjectID()
	}
	return id
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// duplicateKey mimics the write error mongo returns for a unique index clash
func duplicateKey(msg string) error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error " + msg}}}
}

// alive fails fast on a cancelled context like the driver does
func alive(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
