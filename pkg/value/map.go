package value

// Map is an ordered mapping from string keys to values.
//
// The zero Map is empty and ready to use. A nil *Map behaves as an empty,
// read-only map. A frozen map panics on Set and Delete.
type Map struct {
	keys   []string
	vals   map[string]Value
	frozen bool
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// MapOf builds a map from alternating key/value pairs. It is intended for
// tests and literals; it panics on an odd argument count or non-string key.
func MapOf(pairs ...any) *Map {
	if len(pairs)%2 != 0 {
		panic("value.MapOf: odd number of arguments")
	}
	m := NewMap()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic("value.MapOf: key is not a string")
		}
		m.Set(key, MustFromGo(pairs[i+1]))
	}
	return m
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.vals[key]
	return ok
}

// Get returns the value for key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// GetString returns the string at key, or "" when absent or not a string.
func (m *Map) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := v.AsString()
	return s
}

// GetMap returns the map at key.
func (m *Map) GetMap(key string) (*Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	return v.AsMap()
}

// Set stores v at key. A new key is appended to the key order; an existing
// key keeps its position.
func (m *Map) Set(key string, v Value) {
	m.mustWrite("Set")
	if m.vals == nil {
		m.vals = make(map[string]Value)
	}
	if _, exists := m.vals[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Delete removes key.
func (m *Map) Delete(key string) {
	m.mustWrite("Delete")
	if _, exists := m.vals[key]; !exists {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *Map) mustWrite(op string) {
	if m.frozen {
		panic("value: " + op + " on frozen map")
	}
}

// Freeze makes m and every map reachable from it read-only, and returns m.
// Clone of a frozen map is writable.
func (m *Map) Freeze() *Map {
	if m == nil || m.frozen {
		return m
	}
	m.frozen = true
	for _, v := range m.vals {
		v.freeze()
	}
	return m
}

// Frozen reports whether m rejects writes. A nil map is frozen.
func (m *Map) Frozen() bool {
	return m == nil || m.frozen
}

// Range calls fn for each entry in key order until fn returns false.
func (m *Map) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Clone returns a deep copy of m. Cloning a nil map returns an empty map.
func (m *Map) Clone() *Map {
	out := &Map{
		keys: make([]string, 0, m.Len()),
		vals: make(map[string]Value, m.Len()),
	}
	m.Range(func(k string, v Value) bool {
		out.keys = append(out.keys, k)
		out.vals[k] = v.Clone()
		return true
	})
	return out
}

// Merge returns a new map holding m's entries overlaid with patch's entries.
// Values are shared with the inputs, not copied; keys absent from patch keep
// m's value and position, new keys follow in patch order.
func (m *Map) Merge(patch *Map) *Map {
	out := &Map{
		keys: make([]string, 0, m.Len()+patch.Len()),
		vals: make(map[string]Value, m.Len()+patch.Len()),
	}
	m.Range(func(k string, v Value) bool {
		out.keys = append(out.keys, k)
		out.vals[k] = v
		return true
	})
	patch.Range(func(k string, v Value) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// Equal reports whether m and other hold the same keys with equal values.
// Key order is ignored.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	equal := true
	m.Range(func(k string, v Value) bool {
		ov, ok := other.Get(k)
		if !ok || !Equal(v, ov) {
			equal = false
			return false
		}
		return true
	})
	return equal
}
