package core

import "time"

// DefaultTimeout applies to every transport unless configured otherwise.
const DefaultTimeout = 60 * time.Second

type ServerState byte

const (
	Unknown ServerState = iota
	Online
	Offline
)

func (state ServerState) String() string {
	switch state {
	case Online:
		return "Online"
	case Offline:
		return "Offline"
	}
	return "Unknown"
}
