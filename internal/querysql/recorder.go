package querysql

// recorder is a Query that buffers instructions until compilation has
// succeeded, so a request that fails validation never reaches the backend.
type recorder struct {
	alias    string
	parent   Query // caller-built query for ApplyArgs, nil otherwise
	aliases  map[string]bool
	joins    []Join
	where    []Predicate
	orders   []Order
	distinct []Column
	limit    *uint64
	offset   *uint64
}

func newRecorder(alias string, parent Query) *recorder {
	return &recorder{alias: alias, parent: parent, aliases: map[string]bool{alias: true}}
}

func (r *recorder) Alias() string { return r.alias }

func (r *recorder) HasAlias(alias string) bool {
	if r.aliases[alias] {
		return true
	}
	return r.parent != nil && r.parent.HasAlias(alias)
}

func (r *recorder) Join(j Join) {
	r.aliases[j.Alias] = true
	r.joins = append(r.joins, j)
}

func (r *recorder) Where(p Predicate)        { r.where = append(r.where, p) }
func (r *recorder) OrderBy(o Order)          { r.orders = append(r.orders, o) }
func (r *recorder) DistinctOn(cols []Column) { r.distinct = cols }
func (r *recorder) Limit(n uint64)           { r.limit = &n }
func (r *recorder) Offset(n uint64)          { r.offset = &n }

// replay sends the buffered instructions to q in the order joins, where,
// order, distinct, limit, offset.
func (r *recorder) replay(q Query) {
	for _, j := range r.joins {
		q.Join(j)
	}
	for _, p := range r.where {
		q.Where(p)
	}
	for _, o := range r.orders {
		q.OrderBy(o)
	}
	if len(r.distinct) > 0 {
		q.DistinctOn(r.distinct)
	}
	if r.limit != nil {
		q.Limit(*r.limit)
	}
	if r.offset != nil {
		q.Offset(*r.offset)
	}
}
