package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderIDs is an ordered list of child document IDs held on a parent document.
// Its order is the display order of the children and is authoritative over
// the storage order of the child collection.
type OrderIDs []primitive.ObjectID

// Clone returns an independent copy. A nil receiver clones to an empty list
// so the JSON encoding is always an array.
func (o OrderIDs) Clone() OrderIDs {
	out := make(OrderIDs, len(o))
	copy(out, o)
	return out
}

// IndexOf returns the position of id, or -1.
func (o OrderIDs) IndexOf(id primitive.ObjectID) int {
	for i, v := range o {
		if v == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is present.
func (o OrderIDs) Contains(id primitive.ObjectID) bool {
	return o.IndexOf(id) >= 0
}

// HasDuplicates reports whether any id appears more than once.
func (o OrderIDs) HasDuplicates() bool {
	seen := make(map[primitive.ObjectID]struct{}, len(o))
	for _, v := range o {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}

// IsPermutationOf reports whether o and other hold exactly the same ids,
// each once, in any order.
func (o OrderIDs) IsPermutationOf(other OrderIDs) bool {
	if len(o) != len(other) || o.HasDuplicates() || other.HasDuplicates() {
		return false
	}
	for _, v := range o {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// Without returns a copy with every occurrence of id removed.
func (o OrderIDs) Without(id primitive.ObjectID) OrderIDs {
	out := make(OrderIDs, 0, len(o))
	for _, v := range o {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Equal reports whether both lists hold the same ids in the same order.
func (o OrderIDs) Equal(other OrderIDs) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// ParseOrderIDs converts hex strings into OrderIDs.
func ParseOrderIDs(hexes []string) (OrderIDs, error) {
	out := make(OrderIDs, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
