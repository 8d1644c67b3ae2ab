package rcon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/OwenCochell/mctools/core"
)

var numberPattern = regexp.MustCompile(`\d+`)

// Players is the parsed response to the list command.
type Players struct {
	Online int
	Max    int
	Names  []string
}

func (players Players) String() string {
	return fmt.Sprintf("%d of %d players online", players.Online, players.Max)
}

// ParsePlayers reads the output of the list command. It expects the two counts before
// the first colon and a comma separated name list after it, which covers
// "There are 2 of a max of 20 players online: Steve, Alex" and the older "2/20" form.
// Formatting codes must be removed beforehand.
func ParsePlayers(resp string) (Players, error) {
	head, tail, _ := strings.Cut(resp, ":")
	counts := numberPattern.FindAllString(head, 2)
	if len(counts) != 2 {
		return Players{}, core.Malformed(fmt.Sprintf("player list %q has no player counts", resp), nil)
	}
	var players Players
	players.Online, _ = strconv.Atoi(counts[0])
	players.Max, _ = strconv.Atoi(counts[1])

	for _, name := range strings.FieldsFunc(tail, func(r rune) bool { return r == ',' || r == '\n' }) {
		if name = strings.TrimSpace(name); name != "" {
			players.Names = append(players.Names, name)
		}
	}
	return players, nil
}
