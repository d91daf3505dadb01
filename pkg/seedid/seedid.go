// Package seedid parses and normalizes net.sta.loc.chan stream identifiers.
package seedid

import (
	"fmt"
	"strings"
)

// StreamID is the four-part identifier for one data stream: network,
// station, location and channel. The location code may be empty, which
// renders as a double dot in the string form (NV.VOLC..EHZ).
type StreamID struct {
	Network  string
	Station  string
	Location string
	Channel  string
}

// Parse parses a dotted NET.STA.LOC.CHAN identifier.
func Parse(s string) (StreamID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return StreamID{}, fmt.Errorf("stream id %q: want NET.STA.LOC.CHAN", s)
	}
	id := StreamID{
		Network:  parts[0],
		Station:  parts[1],
		Location: parts[2],
		Channel:  parts[3],
	}
	if err := id.Validate(); err != nil {
		return StreamID{}, err
	}
	return id, nil
}

// String returns the dotted form of the identifier.
func (id StreamID) String() string {
	return id.Network + "." + id.Station + "." + id.Location + "." + id.Channel
}

// Validate checks SEED field length conventions.
func (id StreamID) Validate() error {
	switch {
	case id.Network == "" || len(id.Network) > 2:
		return fmt.Errorf("stream id %s: network code must be 1-2 characters", id)
	case id.Station == "" || len(id.Station) > 5:
		return fmt.Errorf("stream id %s: station code must be 1-5 characters", id)
	case len(id.Location) > 2:
		return fmt.Errorf("stream id %s: location code must be 0-2 characters", id)
	case len(id.Channel) != 3:
		return fmt.Errorf("stream id %s: channel code must be 3 characters", id)
	}
	return nil
}
