package library

import (
	"sort"

	"gitlab.com/euphonyd/euphony/src/internal/query"
)

// Collection holds entities in insertion order and indexes every property
// value they carry, so that equality filters resolve without scanning.
type Collection[T Entity] struct {
	items []T
	rows  []map[string]any
	index map[string]map[any][]int
}

// NewCollection returns an empty collection
func NewCollection[T Entity]() *Collection[T] {
	return &Collection[T]{index: make(map[string]map[any][]int)}
}

// Add appends the entity and indexes its properties. It returns the entity
// for chaining.
func (me *Collection[T]) Add(item T) T {
	pos := len(me.items)
	row := make(map[string]any)
	for prop, value := range item.Properties() {
		value = normalize(value)
		if value == nil {
			continue
		}
		row[prop] = value
		byValue := me.index[prop]
		if byValue == nil {
			byValue = make(map[any][]int)
			me.index[prop] = byValue
		}
		byValue[value] = append(byValue[value], pos)
	}
	me.items = append(me.items, item)
	me.rows = append(me.rows, row)
	return item
}

// Len returns the number of entities
func (me *Collection[T]) Len() int {
	return len(me.items)
}

// Items returns the entities in insertion order. The slice is shared and
// must not be modified.
func (me *Collection[T]) Items() []T {
	return me.items
}

// At returns the entity at the given position
func (me *Collection[T]) At(pos int) T {
	return me.items[pos]
}

// ByID returns the entity whose dmap.itemid matches
func (me *Collection[T]) ByID(id int) (T, bool) {
	return me.First(map[string]any{"dmap.itemid": id})
}

// First returns the first entity matching all given property values
func (me *Collection[T]) First(props map[string]any) (item T, ok bool) {
	matches := me.Get(props)
	if len(matches) == 0 {
		return
	}
	return matches[0], true
}

// Get returns the entities matching all given property values, in insertion
// order
func (me *Collection[T]) Get(props map[string]any) []T {
	var hits query.Set
	for prop, value := range props {
		byValue, ok := me.index[prop]
		if !ok {
			return nil
		}
		positions, ok := byValue[normalize(value)]
		if !ok {
			return nil
		}
		set := make(query.Set, len(positions))
		for _, pos := range positions {
			set[pos] = struct{}{}
		}
		if hits == nil {
			hits = set
		} else {
			hits = hits.Intersect(set)
		}
	}
	return me.resolve(hits)
}

// Query filters the collection with a query expression
func (me *Collection[T]) Query(q string) ([]T, error) {
	expr, err := query.Parse(q)
	if err != nil {
		return nil, err
	}
	return me.resolve(expr.Eval(me)), nil
}

// Select evaluates an already parsed expression
func (me *Collection[T]) Select(expr query.Expr) []T {
	return me.resolve(expr.Eval(me))
}

func (me *Collection[T]) resolve(hits query.Set) []T {
	positions := make([]int, 0, len(hits))
	for pos := range hits {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	out := make([]T, len(positions))
	for i, pos := range positions {
		out[i] = me.items[pos]
	}
	return out
}

// All implements query.Source
func (me *Collection[T]) All() query.Set {
	all := make(query.Set, len(me.items))
	for pos := range me.items {
		all[pos] = struct{}{}
	}
	return all
}

// HasProperty implements query.Source
func (me *Collection[T]) HasProperty(prop string) bool {
	_, ok := me.index[prop]
	return ok
}

// Lookup implements query.Source
func (me *Collection[T]) Lookup(prop string, value any) (query.Set, bool) {
	byValue, ok := me.index[prop]
	if !ok {
		return nil, false
	}
	positions, ok := byValue[normalize(value)]
	if !ok {
		return nil, false
	}
	set := make(query.Set, len(positions))
	for _, pos := range positions {
		set[pos] = struct{}{}
	}
	return set, true
}

// Scan implements query.Source
func (me *Collection[T]) Scan(prop string, match func(any) bool) query.Set {
	hits := make(query.Set)
	for pos, row := range me.rows {
		if match(row[prop]) {
			hits[pos] = struct{}{}
		}
	}
	return hits
}

// normalize folds property values onto the types query constants arrive
// with: every integer width becomes int and booleans become 0 or 1, so that
// index keys and query values compare equal.
func normalize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		if v {
			return 1
		}
		return 0
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case string:
		return v
	}
	return value
}
