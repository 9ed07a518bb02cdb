package viz

import (
	"math"
	"sort"

	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/particle"
)

// Camera is an orbiting perspective camera looking at the origin.
type Camera struct {
	Pitch, Yaw float64
	Distance   float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Pitch: 0.35, Yaw: 0.6, Distance: 4, Zoom: 1}
}

func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+dPitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(8, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.2, c.Zoom/1.2) }

func (c *Camera) rotate(p dynamo.Vec3) dynamo.Vec3 {
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	p[0], p[2] = p[0]*cy+p[2]*sy, -p[0]*sy+p[2]*cy
	cp, sp := math.Cos(c.Pitch), math.Sin(c.Pitch)
	p[1], p[2] = p[1]*cp-p[2]*sp, p[1]*sp+p[2]*cp
	return p
}

// Project maps a point in unit scene coordinates onto a w x h dot grid.
// It returns the dot position, the depth and whether the point is in view.
func (c *Camera) Project(p dynamo.Vec3, w, h int) (int, int, float64, bool) {
	r := c.rotate(p)
	denom := c.Distance - r[2]
	if denom <= 0.1 {
		return 0, 0, 0, false
	}
	s := c.Zoom * c.Distance / denom * float64(min(w, h)) / 2.2
	x := int(r[0]*s) + w/2
	y := int(-r[1]*s) + h/2
	return x, y, r[2], x >= 0 && x < w && y >= 0 && y < h
}

type segment struct{ a, b dynamo.Vec3 }

// Scene is a set of segments and points in unit scene coordinates.
type Scene struct {
	segments []segment
}

func (s *Scene) AddEdge(a, b dynamo.Vec3) { s.segments = append(s.segments, segment{a, b}) }
func (s *Scene) AddPoint(p dynamo.Vec3)   { s.segments = append(s.segments, segment{p, p}) }

// BoxScene places the periodic box, scaled to unit size and centered on
// the origin, together with every non-virtual particle.
func BoxScene(box dynamo.Vec3, ps particle.Set) *Scene {
	l := math.Max(box[0], math.Max(box[1], box[2]))
	if l <= 0 {
		return &Scene{}
	}
	norm := func(p dynamo.Vec3) dynamo.Vec3 {
		var q dynamo.Vec3
		for j := range q {
			q[j] = (wrap(p[j], box[j]) - box[j]/2) / l
		}
		return q
	}
	hx, hy, hz := box[0]/(2*l), box[1]/(2*l), box[2]/(2*l)
	v := [8]dynamo.Vec3{
		{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {-hx, hy, -hz},
		{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz},
	}
	s := &Scene{segments: make([]segment, 0, 12+len(ps))}
	for _, e := range [12][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}} {
		s.AddEdge(v[e[0]], v[e[1]])
	}
	for i := range ps {
		if ps[i].Virtual {
			continue
		}
		s.AddPoint(norm(ps[i].Pos))
	}
	return s
}

// Render draws the scene back to front onto the canvas.
func Render(c *Canvas, s *Scene, cam *Camera) {
	if c == nil || s == nil || cam == nil {
		return
	}
	type projected struct {
		x0, y0, x1, y1 int
		depth          float64
	}
	w, h := c.Dots()
	out := make([]projected, 0, len(s.segments))
	for _, seg := range s.segments {
		x0, y0, d0, ok0 := cam.Project(seg.a, w, h)
		x1, y1, d1, ok1 := cam.Project(seg.b, w, h)
		if ok0 || ok1 {
			out = append(out, projected{x0, y0, x1, y1, (d0 + d1) / 2})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].depth < out[j].depth })
	for _, p := range out {
		c.DrawLine(p.x0, p.y0, p.x1, p.y1)
	}
}
