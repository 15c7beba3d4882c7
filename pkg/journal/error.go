package journal

// NotFoundError is returned when an entry doesn't exist in the journal.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "journal entry not found"
	}

	return "journal entry not found: " + e.ID
}
