// Package archive implements the SDS day-file archive: one file per stream
// per UTC day, organized by network, station, channel, year and day-of-year.
package archive

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

// DefaultPathTemplate is the SeisComP SDS convention:
// ROOT/YYYY/NET/STA/CHAN.D/NET.STA.LOC.CHAN.D.YYYY.JJJ
const DefaultPathTemplate = "{year}/{net}/{sta}/{cha}.D/{net}.{sta}.{loc}.{cha}.D.{year}.{jday}"

// Layout maps (stream, day) to a path under the archive root. The template
// is a configuration point; only the default has been exercised against
// SeisComP tooling.
type Layout struct {
	Root     string
	Template string
}

// NewLayout returns a layout rooted at root using the SDS template.
func NewLayout(root string) Layout {
	return Layout{Root: root, Template: DefaultPathTemplate}
}

// DayPath returns the absolute path of the day file for one stream and day.
func (l Layout) DayPath(id seedid.StreamID, day time.Time) string {
	day = day.UTC()
	tpl := l.Template
	if tpl == "" {
		tpl = DefaultPathTemplate
	}
	r := strings.NewReplacer(
		"{year}", fmt.Sprintf("%04d", day.Year()),
		"{jday}", fmt.Sprintf("%03d", day.YearDay()),
		"{net}", id.Network,
		"{sta}", id.Station,
		"{loc}", id.Location,
		"{cha}", id.Channel,
	)
	return filepath.Join(l.Root, filepath.FromSlash(r.Replace(tpl)))
}
