package cssmodules

// Tokens is an insertion-ordered mapping from exported name to value.
type Tokens struct {
	order  []string
	values map[string]string
}

// NewTokens returns an empty token set.
func NewTokens() *Tokens {
	return &Tokens{values: make(map[string]string)}
}

// Add registers name with value unless it is already present. It reports
// whether the name was new.
func (t *Tokens) Add(name, value string) bool {
	if _, ok := t.values[name]; ok {
		return false
	}
	t.order = append(t.order, name)
	t.values[name] = value
	return true
}

// Set registers or replaces name, keeping its original position.
func (t *Tokens) Set(name, value string) {
	if !t.Add(name, value) {
		t.values[name] = value
	}
}

// Append adds extra, space separated, to the value of an existing name.
func (t *Tokens) Append(name, extra string) {
	v, ok := t.values[name]
	if !ok || extra == "" {
		return
	}
	if v == "" {
		t.values[name] = extra
		return
	}
	t.values[name] = v + " " + extra
}

// Get returns the value of name.
func (t *Tokens) Get(name string) (string, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Keys returns names in discovery order.
func (t *Tokens) Keys() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of names.
func (t *Tokens) Len() int {
	return len(t.order)
}

// Map returns a copy of the mapping.
func (t *Tokens) Map() map[string]string {
	out := make(map[string]string, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}
