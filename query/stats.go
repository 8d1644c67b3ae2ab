package query

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/mc"
)

// BasicStats is the answer to a basic stat request. Counts are kept as the server sent them.
type BasicStats struct {
	MOTD       string
	GameType   string
	Map        string
	NumPlayers string
	MaxPlayers string
	HostPort   uint16
	HostIP     string
}

func (stats BasicStats) PlayerCounts() (online, max int) {
	online, _ = strconv.Atoi(stats.NumPlayers)
	max, _ = strconv.Atoi(stats.MaxPlayers)
	return online, max
}

// MapText implements formatter.TextMapper, only the motd carries formatting codes.
func (stats BasicStats) MapText(fn func(string) string) interface{} {
	stats.MOTD = fn(stats.MOTD)
	return stats
}

func ParseBasicStats(body []byte) (BasicStats, error) {
	var stats BasicStats
	r := bytes.NewReader(body)
	for _, field := range []*string{&stats.MOTD, &stats.GameType, &stats.Map, &stats.NumPlayers, &stats.MaxPlayers} {
		bb, err := mc.ReadNulString(r, mc.DefaultMaxNulScan)
		if err != nil {
			return BasicStats{}, err
		}
		*field = mc.Latin1(bb)
	}
	var port mc.LittleUnsignedShort
	if err := port.Decode(r); err != nil {
		return BasicStats{}, err
	}
	stats.HostPort = uint16(port)
	ip, err := mc.ReadNulString(r, mc.DefaultMaxNulScan)
	if err != nil {
		return BasicStats{}, err
	}
	stats.HostIP = mc.Latin1(ip)
	return stats, nil
}

// FullStats is the answer to a full stat request. The server's hostname key is stored as motd.
type FullStats struct {
	Values  map[string]string
	Players []string
}

func (stats FullStats) Get(key string) string {
	return stats.Values[key]
}

func (stats FullStats) MOTD() string {
	return stats.Values["motd"]
}

func (stats FullStats) PlayerCounts() (online, max int) {
	online, _ = strconv.Atoi(stats.Values["numplayers"])
	max, _ = strconv.Atoi(stats.Values["maxplayers"])
	return online, max
}

// Keys returns the keys of Values in sorted order.
func (stats FullStats) Keys() []string {
	keys := make([]string, 0, len(stats.Values))
	for key := range stats.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MapText implements formatter.TextMapper over the motd and the player names.
func (stats FullStats) MapText(fn func(string) string) interface{} {
	out := FullStats{Values: make(map[string]string, len(stats.Values))}
	for key, value := range stats.Values {
		if key == "motd" {
			value = fn(value)
		}
		out.Values[key] = value
	}
	if stats.Players != nil {
		out.Players = make([]string, len(stats.Players))
		for i, name := range stats.Players {
			out.Players[i] = fn(name)
		}
	}
	return out
}

func ParseFullStats(body []byte) (FullStats, error) {
	if len(body) < splitPaddingLength {
		return FullStats{}, core.Malformed(fmt.Sprintf("full stat body of %d bytes is too short", len(body)), nil)
	}
	r := bytes.NewReader(body[splitPaddingLength:])
	stats := FullStats{Values: map[string]string{}}
	for {
		key, err := mc.ReadNulString(r, mc.DefaultMaxNulScan)
		if err != nil {
			return FullStats{}, err
		}
		if len(key) == 0 {
			break
		}
		value, err := mc.ReadNulString(r, mc.DefaultMaxNulScan)
		if err != nil {
			return FullStats{}, err
		}
		name := string(key)
		if name == "hostname" {
			name = "motd"
		}
		stats.Values[name] = mc.Latin1(value)
	}

	marker, err := mc.ReadNBytes(r, len(playerMarker))
	if err != nil {
		return FullStats{}, err
	}
	if !bytes.Equal(marker, playerMarker) {
		return FullStats{}, core.Malformed(fmt.Sprintf("unexpected player section marker %q", marker), nil)
	}
	for {
		name, err := mc.ReadNulString(r, mc.DefaultMaxNulScan)
		if err != nil {
			return FullStats{}, err
		}
		if len(name) == 0 {
			break
		}
		stats.Players = append(stats.Players, mc.Latin1(name))
	}
	return stats, nil
}
