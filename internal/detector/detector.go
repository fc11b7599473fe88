// Package detector decides which key regions a finger is touching by comparing
// the current depth frame against the calibration baseline.
package detector

import (
	"sync"

	"github.com/ayusman/depthkeys/internal/keys"
)

// Default touch band in sensor units (millimetres for most depth cameras).
const (
	DefaultMinDelta = 10
	DefaultMaxDelta = 20
)

// Band is the open interval (Min, Max) of baseline-minus-current differences
// that count as a touch. Differences at or below Min are sensor noise, at or
// above Max are a hand hovering or an invalid reading.
type Band struct {
	Min int
	Max int
}

// DefaultBand returns the (10, 20) touch band.
func DefaultBand() Band {
	return Band{Min: DefaultMinDelta, Max: DefaultMaxDelta}
}

// Contains reports whether diff lies strictly inside the band.
func (b Band) Contains(diff int) bool {
	return diff > b.Min && diff < b.Max
}

// Hit reports whether any pixel of the region lies inside the band.
// Indices outside either buffer are ignored.
func (b Band) Hit(region keys.Region, baseline, frame []uint16) bool {
	n := min(len(baseline), len(frame))
	for _, i := range region.Indices {
		if i < 0 || i >= n {
			continue
		}
		if b.Contains(int(baseline[i]) - int(frame[i])) {
			return true
		}
	}
	return false
}

// IsHit reports whether the region is pressed using the default band.
func IsHit(region keys.Region, baseline, frame []uint16) bool {
	return DefaultBand().Hit(region, baseline, frame)
}

// Config holds configuration options for hit detection.
type Config struct {
	Band Band

	// Workers is the number of goroutines a detection pass may use.
	// Values below 2 run the pass on the calling goroutine.
	Workers int
}

// DefaultConfig returns a Config with the default band and a single worker.
func DefaultConfig() Config {
	return Config{
		Band:    DefaultBand(),
		Workers: 1,
	}
}

// Detector runs a detection pass over a set of regions.
// It holds no per-frame state and is safe for concurrent use.
type Detector struct {
	band    Band
	workers int
}

// New creates a Detector. A zero band falls back to the default band.
func New(config Config) *Detector {
	band := config.Band
	if band.Max <= band.Min {
		band = DefaultBand()
	}
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	return &Detector{band: band, workers: workers}
}

// Band returns the touch band in use.
func (d *Detector) Band() Band {
	return d.band
}

// Hits returns the regions that are pressed in frame, in region order.
// baseline and frame are only read.
func (d *Detector) Hits(regions []keys.Region, baseline, frame []uint16) []keys.Region {
	if len(regions) == 0 {
		return nil
	}

	hit := make([]bool, len(regions))
	if d.workers < 2 || len(regions) < 2 {
		for i := range regions {
			hit[i] = d.band.Hit(regions[i], baseline, frame)
		}
	} else {
		d.parallel(regions, baseline, frame, hit)
	}

	var out []keys.Region
	for i, ok := range hit {
		if ok {
			out = append(out, regions[i])
		}
	}
	return out
}

// parallel splits regions into contiguous chunks, one per worker.
// Each worker writes only its own slots of hit.
func (d *Detector) parallel(regions []keys.Region, baseline, frame []uint16, hit []bool) {
	workers := min(d.workers, len(regions))
	chunk := (len(regions) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(regions); start += chunk {
		end := min(start+chunk, len(regions))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				hit[i] = d.band.Hit(regions[i], baseline, frame)
			}
		}(start, end)
	}
	wg.Wait()
}
