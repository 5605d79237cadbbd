package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cursor is the id of the last row a client has seen. Nil starts from the newest row.
type Cursor = *int64

// newestFirst pages a query by descending id, strictly below cursor.
func newestFirst(q *gorm.DB, column string, cursor Cursor, limit int) *gorm.DB {
	if cursor != nil {
		q = q.Where(column+" < ?", *cursor)
	}
	return q.Order(column + " DESC").Limit(limit)
}

// forUpdate adds a row lock. Dialects without row locks (sqlite) drop the clause.
func forUpdate(q *gorm.DB) *gorm.DB {
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}
