// Package scene holds the procedural entity generators for the black hole
// visualization: event horizon, accretion disk, Hawking radiation, magnetic
// field lines, starfield and nebula. Each entity exposes Update(time) and is
// driven once per application frame, independent of the compositor.
package scene

import "math"

// Config aggregates the per-entity generator settings.
type Config struct {
	Disk    DiskConfig
	Hawking HawkingConfig

	StarCount   int
	NebulaCount int
	FieldLines  int
	Seed        int64
}

// DefaultConfig returns the settings of the interactive scene.
func DefaultConfig() Config {
	return Config{
		Disk:        DefaultDiskConfig(),
		Hawking:     DefaultHawkingConfig(),
		StarCount:   4000,
		NebulaCount: 1500,
		FieldLines:  12,
		Seed:        7,
	}
}

// Scene is the full black hole entity set. It satisfies the opaque
// graphics.Scene handle consumed by the device.
type Scene struct {
	Horizon    *HorizonMesh
	Disk       *AccretionDisk
	Hawking    *HawkingRadiation
	FieldLines *FieldLines
	Starfield  *Starfield
	Nebula     *Nebula
}

// New builds every generator from cfg.
func New(cfg Config) *Scene {
	return &Scene{
		Horizon:    NewHorizonMesh(cfg.Hawking.HorizonRadius, 32),
		Disk:       NewAccretionDisk(cfg.Disk),
		Hawking:    NewHawkingRadiation(cfg.Hawking),
		FieldLines: NewFieldLines(cfg.FieldLines, 48, cfg.Hawking.HorizonRadius*2.2),
		Starfield:  NewStarfield(cfg.StarCount, 180, cfg.Seed),
		Nebula:     NewNebula(cfg.NebulaCount, 120, 200, cfg.Seed+1),
	}
}

// Update advances all generators to the given absolute time.
func (s *Scene) Update(time float64) {
	s.Disk.Update(time)
	s.Hawking.Update(time)
	s.FieldLines.Update(time)
	s.Starfield.Update(time)
	s.Nebula.Update(time)
}

// HorizonMesh is a static UV sphere for the event horizon.
type HorizonMesh struct {
	Vertices []float32 // xyz triplets
	Indices  []uint32
	dirty    bool
}

// NewHorizonMesh builds a UV sphere of the given radius and segment count.
func NewHorizonMesh(radius float64, segments int) *HorizonMesh {
	m := &HorizonMesh{dirty: true}
	for lat := 0; lat <= segments; lat++ {
		phi := float64(lat) / float64(segments) * math.Pi
		for lon := 0; lon <= segments; lon++ {
			theta := float64(lon) / float64(segments) * 2 * math.Pi
			m.Vertices = append(m.Vertices,
				float32(radius*math.Sin(phi)*math.Cos(theta)),
				float32(radius*math.Cos(phi)),
				float32(radius*math.Sin(phi)*math.Sin(theta)),
			)
		}
	}
	stride := uint32(segments + 1)
	for lat := 0; lat < segments; lat++ {
		for lon := 0; lon < segments; lon++ {
			a := uint32(lat)*stride + uint32(lon)
			b := a + stride
			m.Indices = append(m.Indices, a, b, a+1, b, b+1, a+1)
		}
	}
	return m
}

func (m *HorizonMesh) Dirty() bool { return m.dirty }
func (m *HorizonMesh) MarkClean()  { m.dirty = false }
