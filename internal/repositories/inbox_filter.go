package repositories

// ===========================================================================
// Inbox filter
// The fixed filter enum the conversation inbox exposes. Each value maps
// to an exact predicate over (status, is_starred); soft-deleted
// conversations are always excluded regardless of filter.
// ===========================================================================

// InboxFilter conversation list filter
type InboxFilter string

const (
	// FilterActive status=active and not starred
	FilterActive InboxFilter = "active"

	// FilterUrgent status=active and starred
	FilterUrgent InboxFilter = "urgent"

	// FilterClosed status=archived
	FilterClosed InboxFilter = "closed"

	// FilterAll no status predicate beyond the deleted exclusion
	FilterAll InboxFilter = "all"
)

// Valid reports whether f is a known filter value
func (f InboxFilter) Valid() bool {
	switch f {
	case FilterActive, FilterUrgent, FilterClosed, FilterAll:
		return true
	}
	return false
}

// Predicate returns the WHERE fragment and arguments for the filter.
// An empty clause means no additional condition.
func (f InboxFilter) Predicate() (clause string, args []interface{}) {
	switch f {
	case FilterActive:
		return "status = ? AND is_starred = ?", []interface{}{"active", false}
	case FilterUrgent:
		return "status = ? AND is_starred = ?", []interface{}{"active", true}
	case FilterClosed:
		return "status = ?", []interface{}{"archived"}
	default:
		return "", nil
	}
}

// SortOrder inbox sort direction over last_message_at
type SortOrder string

const (
	// SortNewest most recent last_message_at first
	SortNewest SortOrder = "newest"

	// SortOldest oldest last_message_at first
	SortOldest SortOrder = "oldest"
)

// OrderClause returns the ORDER BY string for the sort order
func (s SortOrder) OrderClause() string {
	if s == SortOldest {
		return "last_message_at asc"
	}
	return "last_message_at desc"
}
