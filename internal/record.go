package internal

// Record is a single harvested listing: a set of field names and their
// corresponding text values. Field order determines column order in the
// tabular output, so fields and values are kept in parallel slices rather
// than a map.
type Record struct {
	fields []string
	values []string
}

func NewRecord(fields []string, values []string) *Record {
	return &Record{
		fields: fields,
		values: values,
	}
}

func (r *Record) Len() int {
	return len(r.fields)
}

func (r *Record) Fields() []string {
	return r.fields
}

func (r *Record) Values() []string {
	return r.values
}

func (r *Record) Map() map[string]string {
	m := make(map[string]string)
	for i, field := range r.fields {
		m[field] = r.values[i]
	}
	return m
}
