package seedid

import "strings"

// Fixer normalizes the raw stream identifiers found in legacy analog-telemetry
// archives. Those archives encode the component in the station name (RUIZ,
// RUIN, RUIE), carry no network code, and include an IRIG timing trace that
// is not seismic data.
type Fixer struct {
	// Network is stamped onto every stream.
	Network string
}

// Fix normalizes the identifiers of one multiplexed file. Normalization of a
// single stream depends on its siblings (a component suffix is only stripped
// when several stations share the same three-letter root), so the whole file
// is fixed at once. The returned keep mask is false for dropped streams.
func (f Fixer) Fix(ids []StreamID) ([]StreamID, []bool) {
	stations := make([]string, len(ids))
	for i, id := range ids {
		stations[i] = id.Station
	}

	fixed := make([]StreamID, len(ids))
	keep := make([]bool, len(ids))
	for i, id := range ids {
		if id.Station == "IRIG" {
			continue
		}
		keep[i] = true
		id.Network = f.Network

		root3 := id.Station
		if len(root3) > 3 {
			root3 = root3[:3]
		}
		multiForRoot := countWithPrefix(stations, root3) > 1

		last := ""
		if id.Station != "" {
			last = id.Station[len(id.Station)-1:]
		}

		if strings.Contains("ZNE", last) && last != "" && multiForRoot {
			// Component lives in the station suffix: RUIZ -> RUI / EHZ.
			id.Channel = "EH" + last
			id.Station = root3
		} else if len(id.Channel) != 3 || !strings.Contains("ZNE", id.Channel[2:]) {
			// Unknown component, assume vertical.
			id.Channel = "EHZ"
		}

		if len(id.Station) == 4 && multiForRoot {
			switch last {
			case "L":
				// Low-gain variant parallel to the EH stream.
				id.Channel = "EL" + id.Channel[2:]
				id.Station = root3
			case "H":
				id.Station = root3
			}
		}

		id.Location = strings.TrimSpace(id.Location)
		fixed[i] = id
	}
	return fixed, keep
}

func countWithPrefix(stations []string, prefix string) int {
	n := 0
	for _, s := range stations {
		if strings.HasPrefix(s, prefix) {
			n++
		}
	}
	return n
}
