package formatter

import (
	"reflect"
	"sort"
)

type Entry struct {
	Formatter Formatter
	// Match lists the commands the formatter applies to, empty matches every command.
	Match    []string
	Ignore   []string
	Priority int
}

func (entry Entry) relevant(command string) bool {
	if contains(entry.Ignore, command) {
		return false
	}
	return len(entry.Match) == 0 || contains(entry.Match, command)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

type EntryOption func(*Entry)

func Match(commands ...string) EntryOption {
	return func(entry *Entry) {
		entry.Match = append(entry.Match, commands...)
	}
}

func Ignore(commands ...string) EntryOption {
	return func(entry *Entry) {
		entry.Ignore = append(entry.Ignore, commands...)
	}
}

// WithPriority overrides the priority the formatter reports.
func WithPriority(priority int) EntryOption {
	return func(entry *Entry) {
		entry.Priority = priority
	}
}

// Collection is an ordered set of formatters. It is owned by a single client and is
// not safe for concurrent use.
type Collection struct {
	entries []Entry
}

func NewCollection(entries ...Entry) *Collection {
	c := &Collection{}
	for _, entry := range entries {
		c.addEntry(entry)
	}
	return c
}

// Add registers f, priority comes from Prioritizer unless overridden.
func (c *Collection) Add(f Formatter, opts ...EntryOption) {
	entry := Entry{
		Formatter: f,
		Priority:  DefaultPriority,
	}
	if p, ok := f.(Prioritizer); ok {
		entry.Priority = p.Priority()
	}
	for _, opt := range opts {
		opt(&entry)
	}
	c.addEntry(entry)
}

func (c *Collection) addEntry(entry Entry) {
	entry.Match = append([]string(nil), entry.Match...)
	entry.Ignore = append([]string(nil), entry.Ignore...)
	c.entries = append(c.entries, entry)
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].Priority < c.entries[j].Priority
	})
}

// Remove unregisters the first entry holding f and reports whether there was one.
func (c *Collection) Remove(f Formatter) bool {
	for i, entry := range c.entries {
		if sameFormatter(entry.Formatter, f) {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

func sameFormatter(a, b Formatter) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}

func (c *Collection) Clear() {
	c.entries = nil
}

func (c *Collection) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the registered entries in the order they run.
func (c *Collection) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Clone returns an independent copy of the collection.
func (c *Collection) Clone() *Collection {
	return NewCollection(c.entries...)
}

func (c *Collection) Format(v interface{}, command string) interface{} {
	for _, entry := range c.entries {
		if entry.relevant(command) {
			v = entry.Formatter.Format(v)
		}
	}
	return v
}

func (c *Collection) Clean(v interface{}, command string) interface{} {
	for _, entry := range c.entries {
		if entry.relevant(command) {
			v = entry.Formatter.Clean(v)
		}
	}
	return v
}

// Apply runs the collection in the given mode. When a formatter breaks the type
// contract the content is returned unformatted.
func Apply[T any](c *Collection, mode Mode, v T, command string) T {
	var out interface{}
	switch mode {
	case Replace:
		out = c.Format(v, command)
	case Remove:
		out = c.Clean(v, command)
	default:
		return v
	}
	if res, ok := out.(T); ok {
		return res
	}
	return v
}
