package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/taskboard-api/logging"
	"github.com/linesmerrill/taskboard-api/models"
)

// AssembleBoardDetail nests the joined cards under their columns. Columns
// follow the board's columnOrderIds and cards follow each column's
// cardOrderIds. Children the order arrays do not list are appended in
// storage order and counted as ordering anomalies. The aggregate is copied
// first, so the result shares no slices with agg.
func AssembleBoardDetail(ctx context.Context, agg models.BoardAggregate) models.BoardDetail {
	a := agg.Clone()
	log := logging.FromContext(ctx).With("boardId", a.ID.Hex())

	cardsByColumn := make(map[primitive.ObjectID][]models.Card, len(a.Columns))
	for _, card := range a.Cards {
		cardsByColumn[card.ColumnID] = append(cardsByColumn[card.ColumnID], card)
	}

	columnsByID := make(map[primitive.ObjectID]models.Column, len(a.Columns))
	for _, col := range a.Columns {
		columnsByID[col.ID] = col
	}

	ordered := make([]models.Column, 0, len(a.Columns))
	placed := make(map[primitive.ObjectID]bool, len(a.Columns))
	for _, id := range a.ColumnOrderIDs {
		col, ok := columnsByID[id]
		if !ok || placed[id] {
			continue
		}
		ordered = append(ordered, col)
		placed[id] = true
	}
	for _, col := range a.Columns {
		if placed[col.ID] {
			continue
		}
		log.Warnw("column missing from columnOrderIds", "columnId", col.ID.Hex())
		orderingAnomalies.Inc()
		ordered = append(ordered, col)
		placed[col.ID] = true
	}

	detail := models.BoardDetail{
		Board:   a.Board,
		Columns: make([]models.ColumnDetail, 0, len(ordered)),
		Owners:  nonNilUsers(a.Owners),
		Members: nonNilUsers(a.Members),
	}
	for _, col := range ordered {
		cards := orderCards(col, cardsByColumn[col.ID], func(cardID primitive.ObjectID) {
			log.Warnw("card missing from cardOrderIds", "columnId", col.ID.Hex(), "cardId", cardID.Hex())
			orderingAnomalies.Inc()
		})
		detail.Columns = append(detail.Columns, models.ColumnDetail{Column: col, Cards: cards})
		delete(cardsByColumn, col.ID)
	}
	for columnID, orphans := range cardsByColumn {
		log.Warnw("cards reference a column outside the board", "columnId", columnID.Hex(), "cards", len(orphans))
		orderingAnomalies.Inc()
	}
	return detail
}

func orderCards(col models.Column, cards []models.Card, unlisted func(primitive.ObjectID)) []models.Card {
	byID := make(map[primitive.ObjectID]models.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	out := make([]models.Card, 0, len(cards))
	placed := make(map[primitive.ObjectID]bool, len(cards))
	for _, id := range col.CardOrderIDs {
		c, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		out = append(out, c)
		placed[id] = true
	}
	for _, c := range cards {
		if !placed[c.ID] {
			unlisted(c.ID)
			out = append(out, c)
			placed[c.ID] = true
		}
	}
	return out
}

func nonNilUsers(users []models.UserSummary) []models.UserSummary {
	if users == nil {
		return []models.UserSummary{}
	}
	return users
}
