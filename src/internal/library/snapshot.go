package library

// BaseContainer is the name of the container that mirrors the whole library
const BaseContainer = "Library"

// Snapshot is one immutable view of the library. A new snapshot is built
// whenever the underlying database changes and swapped in atomically;
// entity ids are only stable within one snapshot.
type Snapshot struct {
	Artists    *Collection[*Artist]
	Albums     *Collection[*Album]
	Items      *Collection[*Item]
	Containers *Collection[*Container]
}

// NewSnapshot returns a snapshot with empty collections
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Artists:    NewCollection[*Artist](),
		Albums:     NewCollection[*Album](),
		Items:      NewCollection[*Item](),
		Containers: NewCollection[*Container](),
	}
}

// Root returns the base container holding the whole library
func (me *Snapshot) Root() *Container {
	if me.Containers.Len() == 0 {
		return nil
	}
	return me.Containers.At(0)
}
