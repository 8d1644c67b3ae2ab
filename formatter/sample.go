package formatter

import (
	"strings"

	"github.com/OwenCochell/mctools/mc"
)

// SampleDescription moves text that servers hide in the player sample, entries with
// the null UUID, into Players.Message. Format and Clean behave the same; Default takes
// care of the codes inside the message afterwards.
type SampleDescription struct{}

func (SampleDescription) Priority() int {
	return 15
}

func (f SampleDescription) Format(v interface{}) interface{} {
	status, ok := v.(mc.StatusResponse)
	if !ok || status.Players.Sample == nil {
		return v
	}
	var (
		players []mc.PlayerSampleJSON
		lines   []string
	)
	for _, sample := range status.Players.Sample {
		if sample.ID == mc.NullUUID {
			lines = append(lines, sample.Name)
			continue
		}
		players = append(players, sample)
	}
	if lines == nil {
		return v
	}
	status.Players.Sample = players
	status.Players.Message = strings.TrimRight(strings.Join(lines, "\n"), "\n")
	return status
}

func (f SampleDescription) Clean(v interface{}) interface{} {
	return f.Format(v)
}
