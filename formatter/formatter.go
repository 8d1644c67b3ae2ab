// Package formatter post-processes text and status payloads returned by the protocols.
//
// A Collection holds formatters, each scoped to the commands it applies to. Formatting
// runs every relevant formatter in ascending priority, feeding each one the output of
// the previous one.
package formatter

// Mode selects how a client post-processes what it receives.
type Mode int

const (
	// Raw returns content exactly as the server sent it.
	Raw Mode = iota
	// Replace turns formatting codes into terminal escape sequences.
	Replace
	// Remove strips formatting codes.
	Remove
)

func (mode Mode) String() string {
	switch mode {
	case Raw:
		return "raw"
	case Replace:
		return "replace"
	case Remove:
		return "remove"
	}
	return "unknown"
}

// Pseudo commands used to scope formatters to the query and ping protocols.
const (
	QueryCommand = "QUERY_PROTOCOL"
	PingCommand  = "PING_PROTOCOL"
)

// DefaultPriority is used for formatters that do not implement Prioritizer.
const DefaultPriority = 20

// Formatter transforms content. Implementations return a value of the same type they
// were given and leave their input untouched; content they do not understand is
// returned as is.
type Formatter interface {
	Format(v interface{}) interface{}
	Clean(v interface{}) interface{}
}

// Prioritizer is implemented by formatters with a priority other than DefaultPriority.
type Prioritizer interface {
	Priority() int
}

// TextMapper is implemented by structured payloads, it returns a copy with fn applied
// to every human readable string.
type TextMapper interface {
	MapText(fn func(string) string) interface{}
}
