// Package constants defines application-wide constants and version information.
package constants

import (
	"runtime"
	"time"
)

// Version holds the application version information
const Version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

// SecondsPerDay is the length of one UTC day in seconds.
const SecondsPerDay = 86400

// DefaultSegmentDuration is the nominal length of one continuous record
// segment as produced by the observatory digitizers.
const DefaultSegmentDuration = 2 * time.Minute

// DefaultWindowLength is the metric computation window.
const DefaultWindowLength = time.Minute

// DefaultSampleRate is the sample rate assumed by the segment simulator, in Hz.
const DefaultSampleRate = 100.0
