package metrics

import (
	"math"

	"github.com/san-kum/robosim/internal/dynamo"
)

// PathLength is the distance travelled between observed poses.
type PathLength struct {
	total float64
	last  dynamo.Vec2
	seen  bool
}

func NewPathLength() *PathLength { return &PathLength{} }

func (p *PathLength) Name() string { return "path_length" }

func (p *PathLength) Observe(s dynamo.Sample) {
	pos := s.Snapshot.Pose.Position()
	if p.seen {
		p.total += math.Sqrt(pos.Dist2(p.last))
	}
	p.last, p.seen = pos, true
}

func (p *PathLength) Value() float64 { return p.total }

func (p *PathLength) Reset() { *p = PathLength{} }

// MaxSpeed is the highest linear speed observed.
type MaxSpeed struct {
	max float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(s dynamo.Sample) {
	m.max = math.Max(m.max, s.Snapshot.Speed)
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }
