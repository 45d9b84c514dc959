package store

type EntityState int

const (
	Detached EntityState = iota
	Unchanged
	Added
	Modified
	Deleted
)

func (s EntityState) String() string {
	switch s {
	case Unchanged:
		return "Unchanged"
	case Added:
		return "Added"
	case Modified:
		return "Modified"
	case Deleted:
		return "Deleted"
	default:
		return "Detached"
	}
}

// Pending reports whether the state still has to be written to the store.
func (s EntityState) Pending() bool {
	return s == Added || s == Modified || s == Deleted
}

// Entry associates one tracked entity instance with its state.
type Entry struct {
	Entity interface{}
	State  EntityState
}
