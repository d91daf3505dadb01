package seedid

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    StreamID
		wantErr bool
	}{
		{
			name:  "full id",
			input: "NV.VOLC.00.EHZ",
			want:  StreamID{Network: "NV", Station: "VOLC", Location: "00", Channel: "EHZ"},
		},
		{
			name:  "empty location",
			input: "NR.RUI..EHZ",
			want:  StreamID{Network: "NR", Station: "RUI", Location: "", Channel: "EHZ"},
		},
		{
			name:    "too few parts",
			input:   "NV.VOLC.EHZ",
			wantErr: true,
		},
		{
			name:    "missing network",
			input:   ".VOLC.00.EHZ",
			wantErr: true,
		},
		{
			name:    "channel too short",
			input:   "NV.VOLC.00.EH",
			wantErr: true,
		},
		{
			name:    "station too long",
			input:   "NV.LONGSTATION.00.EHZ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStringRoundtrip(t *testing.T) {
	id := StreamID{Network: "NV", Station: "VOLC", Location: "", Channel: "EHZ"}
	if got := id.String(); got != "NV.VOLC..EHZ" {
		t.Errorf("String() = %q, want NV.VOLC..EHZ", got)
	}
	back, err := Parse(id.String())
	if err != nil {
		t.Fatalf("Parse(String()): %v", err)
	}
	if back != id {
		t.Errorf("roundtrip = %v, want %v", back, id)
	}
}

func TestFixerDropsIRIG(t *testing.T) {
	f := Fixer{Network: "NR"}
	ids := []StreamID{
		{Station: "IRIG", Channel: "EHZ"},
		{Station: "RUI", Channel: "EHZ"},
	}
	fixed, keep := f.Fix(ids)
	if keep[0] {
		t.Error("IRIG trace was kept")
	}
	if !keep[1] {
		t.Fatal("seismic trace was dropped")
	}
	if fixed[1].Network != "NR" {
		t.Errorf("network = %q, want NR", fixed[1].Network)
	}
}

func TestFixerComponentSuffix(t *testing.T) {
	f := Fixer{Network: "NR"}
	// Three stations sharing the RUI root encode the component in the
	// station name; they should collapse into one station with EH? channels.
	ids := []StreamID{
		{Station: "RUIZ"},
		{Station: "RUIN"},
		{Station: "RUIE"},
	}
	fixed, keep := f.Fix(ids)
	wantChannels := []string{"EHZ", "EHN", "EHE"}
	for i := range fixed {
		if !keep[i] {
			t.Fatalf("stream %d dropped", i)
		}
		if fixed[i].Station != "RUI" {
			t.Errorf("station[%d] = %q, want RUI", i, fixed[i].Station)
		}
		if fixed[i].Channel != wantChannels[i] {
			t.Errorf("channel[%d] = %q, want %q", i, fixed[i].Channel, wantChannels[i])
		}
	}
}

func TestFixerLoneStationDefaultsVertical(t *testing.T) {
	f := Fixer{Network: "NR"}
	fixed, keep := f.Fix([]StreamID{{Station: "OLLZ"}})
	if !keep[0] {
		t.Fatal("stream dropped")
	}
	// Only one station with this root: the Z suffix stays in the station
	// name and the channel defaults to vertical.
	if fixed[0].Station != "OLLZ" {
		t.Errorf("station = %q, want OLLZ", fixed[0].Station)
	}
	if fixed[0].Channel != "EHZ" {
		t.Errorf("channel = %q, want EHZ", fixed[0].Channel)
	}
}

func TestFixerKeepsValidChannel(t *testing.T) {
	f := Fixer{Network: "NR"}
	// A stream that already carries a proper component channel keeps it; only
	// unknown channels default to vertical.
	fixed, keep := f.Fix([]StreamID{
		{Station: "COPA", Channel: "SHN"},
		{Station: "COPA", Channel: "X"},
	})
	if !keep[0] || !keep[1] {
		t.Fatal("streams dropped")
	}
	if fixed[0].Channel != "SHN" {
		t.Errorf("channel = %q, want SHN", fixed[0].Channel)
	}
	if fixed[1].Channel != "EHZ" {
		t.Errorf("channel = %q, want EHZ", fixed[1].Channel)
	}
}

func TestFixerLowGain(t *testing.T) {
	f := Fixer{Network: "NR"}
	// RUIL is the low-gain twin of RUIZ; it should become RUI with an EL?
	// channel.
	ids := []StreamID{
		{Station: "RUIZ"},
		{Station: "RUIL"},
	}
	fixed, keep := f.Fix(ids)
	if !keep[0] || !keep[1] {
		t.Fatal("streams dropped")
	}
	if fixed[1].Station != "RUI" {
		t.Errorf("low-gain station = %q, want RUI", fixed[1].Station)
	}
	if fixed[1].Channel[:2] != "EL" {
		t.Errorf("low-gain channel = %q, want EL?", fixed[1].Channel)
	}
}
