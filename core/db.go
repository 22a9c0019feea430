package core

// DBOrdering is one ORDER BY term of a repository query. Repositories
// whitelist Field against their own orderable columns before using it.
type DBOrdering struct {
	Field     string
	Ascending bool
}

// String renders the term as SQL, e.g. "name DESC".
func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
