package proto

import "strings"

type headerEntry struct {
	name  string
	value string
}

// Headers is an ordered header map. Names match case-insensitively; setting
// an existing name overwrites its value in place, keeping the original
// position and spelling. Serialization walks entries in insertion order.
type Headers struct {
	entries []headerEntry
	index   map[string]int
}

func NewHeaders() *Headers {
	return &Headers{index: make(map[string]int, 8)}
}

func (h *Headers) Set(name, value string) {
	key := strings.ToLower(name)
	if i, ok := h.index[key]; ok {
		h.entries[i].value = value
		return
	}
	h.index[key] = len(h.entries)
	h.entries = append(h.entries, headerEntry{name: name, value: value})
}

// Get returns the value for name, or "" when the header is absent.
func (h *Headers) Get(name string) string {
	if i, ok := h.index[strings.ToLower(name)]; ok {
		return h.entries[i].value
	}
	return ""
}

func (h *Headers) Has(name string) bool {
	_, ok := h.index[strings.ToLower(name)]
	return ok
}

func (h *Headers) Len() int {
	return len(h.entries)
}

// Each calls fn for every header in insertion order.
func (h *Headers) Each(fn func(name, value string)) {
	for _, e := range h.entries {
		fn(e.name, e.value)
	}
}
