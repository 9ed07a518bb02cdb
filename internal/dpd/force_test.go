package dpd

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/neighbor"
	"github.com/san-kum/dpdsim/internal/particle"
	"github.com/san-kum/dpdsim/internal/random"
)

func pairAt(x1, x2, v1, v2 dynamo.Vec3) particle.Set {
	return particle.Set{
		{ID: 0, Pos: x1, Vel: v1, Mass: 1},
		{ID: 1, Pos: x2, Vel: v2, Mass: 1},
	}
}

func separation(ctx *dynamo.Context, ps particle.Set) (dynamo.Vec3, float64, float64) {
	d := ctx.MinimumImage(ps[0].Pos.Sub(ps[1].Pos))
	return d, d.Norm(), d.Norm2()
}

var _ = Describe("PairForce", func() {
	var (
		ctx   *dynamo.Context
		table *Table
	)

	BeforeEach(func() {
		ctx = dynamo.NewContext(dynamo.Vec3{10, 10, 10})
		ctx.TimeStep = 0.01
		ctx.Thermo = dynamo.ThermoDPD
		table = NewTable(2)
	})

	Context("head-on approach at zero temperature", func() {
		var ps particle.Set

		BeforeEach(func() {
			ps = pairAt(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{-1, 0, 0})
		})

		It("does not interact exactly at the cutoff", func() {
			Expect(table.SetParams(ctx, 0, 0, Params{Gamma: 1, Cutoff: 1})).To(Succeed())
			d, dist, dist2 := separation(ctx, ps)
			f := PairForce(ctx, nil, &ps[0], &ps[1], table.Lookup(0, 0), d, dist, dist2, false)
			Expect(f).To(Equal(dynamo.Vec3{}))
		})

		It("opposes the approach inside the cutoff", func() {
			Expect(table.SetParams(ctx, 0, 0, Params{Gamma: 1, Cutoff: 1.5})).To(Succeed())
			d, dist, dist2 := separation(ctx, ps)
			Expect(d).To(Equal(dynamo.Vec3{-1, 0, 0}))

			rng := &random.Counting{Src: random.New(1)}
			f := PairForce(ctx, rng, &ps[0], &ps[1], table.Lookup(0, 0), d, dist, dist2, true)

			// friction = (γ/Δt)·ω²·(v12·d)·Δt = 100·1·(−2)·0.01
			Expect(f[0]).To(BeNumerically("~", -2, 1e-12))
			Expect(f[1]).To(BeZero())
			Expect(f[2]).To(BeZero())
			Expect(f.Dot(ps[0].Vel.Sub(ps[1].Vel))).To(BeNumerically("<", 0))
			// no noise at zero temperature, so nothing is drawn
			Expect(rng.Draws).To(BeZero())
		})
	})

	It("is deterministic and never touches the source without noise", func() {
		ctx.Temperature = 1.0
		Expect(table.SetParams(ctx, 0, 1, Params{
			Gamma: 2, Cutoff: 1.2, Weight: LinearDecay,
			TransGamma: 1, TransCutoff: 1.2, TransWeight: LinearDecay,
		})).To(Succeed())
		ps := pairAt(dynamo.Vec3{1, 1, 1}, dynamo.Vec3{1.5, 1.3, 0.8}, dynamo.Vec3{0.3, -0.2, 0.1}, dynamo.Vec3{-0.5, 0.4, 0.9})
		ps[1].Type = 1
		d, dist, dist2 := separation(ctx, ps)

		rng := &random.Counting{Src: random.New(7)}
		c := table.Lookup(0, 1)
		a := PairForce(ctx, rng, &ps[0], &ps[1], c, d, dist, dist2, false)
		b := PairForce(ctx, nil, &ps[0], &ps[1], c, d, dist, dist2, false)
		Expect(a).To(Equal(b))
		Expect(rng.Draws).To(BeZero())
	})

	It("draws one longitudinal and three transverse numbers per pair", func() {
		ctx.Temperature = 1.0
		Expect(table.SetParams(ctx, 0, 0, Params{Gamma: 1, Cutoff: 1, TransGamma: 1, TransCutoff: 1})).To(Succeed())
		ps := pairAt(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{0.5, 0, 0}, dynamo.Vec3{}, dynamo.Vec3{})
		d, dist, dist2 := separation(ctx, ps)

		rng := &random.Counting{Src: random.New(7)}
		PairForce(ctx, rng, &ps[0], &ps[1], table.Lookup(0, 0), d, dist, dist2, true)
		Expect(rng.Draws).To(Equal(4))
	})

	It("produces no noise when every draw sits at the midpoint", func() {
		ctx.Temperature = 3.0
		Expect(table.SetParams(ctx, 0, 0, Params{Gamma: 1, Cutoff: 1, TransGamma: 1, TransCutoff: 1})).To(Succeed())
		ps := pairAt(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{0.3, 0.2, 0.1}, dynamo.Vec3{}, dynamo.Vec3{})
		d, dist, dist2 := separation(ctx, ps)

		f := PairForce(ctx, &random.Sequence{Values: []float64{0.5}}, &ps[0], &ps[1], table.Lookup(0, 0), d, dist, dist2, true)
		Expect(f).To(Equal(dynamo.Vec3{}))
	})

	It("scales the longitudinal noise with the drawn value", func() {
		ctx.Temperature = 1.0
		Expect(table.SetParams(ctx, 0, 0, Params{Gamma: 1, Cutoff: 2})).To(Succeed())
		ps := pairAt(dynamo.Vec3{1, 0, 0}, dynamo.Vec3{0, 0, 0}, dynamo.Vec3{}, dynamo.Vec3{})
		d, dist, dist2 := separation(ctx, ps)
		c := table.Lookup(0, 0)

		f := PairForce(ctx, &random.Sequence{Values: []float64{1.0}}, &ps[0], &ps[1], c, d, dist, dist2, true)
		Expect(f[0]).To(BeNumerically("~", c.NoiseLong*0.5, 1e-12))
	})

	It("returns zero beyond both cutoffs", func() {
		ctx.Temperature = 1.0
		Expect(table.SetParams(ctx, 0, 0, Params{Gamma: 1, Cutoff: 0.5, TransGamma: 1, TransCutoff: 0.7})).To(Succeed())
		ps := pairAt(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{0.8, 0, 0}, dynamo.Vec3{1, 2, 3}, dynamo.Vec3{-3, -2, -1})
		d, dist, dist2 := separation(ctx, ps)

		rng := &random.Counting{Src: random.New(3)}
		f := PairForce(ctx, rng, &ps[0], &ps[1], table.Lookup(0, 0), d, dist, dist2, true)
		Expect(f).To(Equal(dynamo.Vec3{}))
		Expect(rng.Draws).To(BeZero())
	})

	It("vanishes at the cutoff for the linear-decay law", func() {
		Expect(table.SetParams(ctx, 0, 0, Params{Gamma: 1, Cutoff: 1.0 + 1e-12, Weight: LinearDecay})).To(Succeed())
		ps := pairAt(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{-1, 0, 0})
		d, dist, dist2 := separation(ctx, ps)

		f := PairForce(ctx, nil, &ps[0], &ps[1], table.Lookup(0, 0), d, dist, dist2, false)
		Expect(f.Norm()).To(BeNumerically("<", 1e-9))
	})

	It("is silent while the thermostat is off", func() {
		ctx.Temperature = 1.0
		ctx.Thermo = dynamo.ThermoOff
		Expect(table.SetParams(ctx, 0, 0, Params{Gamma: 1, Cutoff: 1.5})).To(Succeed())
		ps := pairAt(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{-1, 0, 0})
		d, dist, dist2 := separation(ctx, ps)

		rng := &random.Counting{Src: random.New(3)}
		f := PairForce(ctx, rng, &ps[0], &ps[1], table.Lookup(0, 0), d, dist, dist2, true)
		Expect(f).To(Equal(dynamo.Vec3{}))
		Expect(rng.Draws).To(BeZero())
	})

	Describe("transverse damping", func() {
		BeforeEach(func() {
			Expect(table.SetParams(ctx, 0, 0, Params{TransGamma: 1, TransCutoff: 2})).To(Succeed())
		})

		It("damps relative motion normal to the separation", func() {
			ps := pairAt(dynamo.Vec3{1, 0, 0}, dynamo.Vec3{0, 0, 0}, dynamo.Vec3{0, 1, 0}, dynamo.Vec3{})
			d, dist, dist2 := separation(ctx, ps)

			f := PairForce(ctx, nil, &ps[0], &ps[1], table.Lookup(0, 0), d, dist, dist2, false)
			Expect(f[0]).To(BeNumerically("~", 0, 1e-15))
			Expect(f[1]).To(BeNumerically("~", -1, 1e-12))
			Expect(f[2]).To(BeNumerically("~", 0, 1e-15))
		})

		It("ignores motion along the separation", func() {
			ps := pairAt(dynamo.Vec3{1, 0, 0}, dynamo.Vec3{0, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{})
			d, dist, dist2 := separation(ctx, ps)

			f := PairForce(ctx, nil, &ps[0], &ps[1], table.Lookup(0, 0), d, dist, dist2, false)
			Expect(f.Norm()).To(BeNumerically("<", 1e-15))
		})

		It("keeps its noise perpendicular to the separation", func() {
			ctx.Temperature = 1.0
			Expect(table.Retune(ctx)).To(Succeed())
			ps := pairAt(dynamo.Vec3{0.3, 0.4, 0.2}, dynamo.Vec3{0, 0, 0}, dynamo.Vec3{}, dynamo.Vec3{})
			d, dist, dist2 := separation(ctx, ps)

			rng := random.New(11)
			for i := 0; i < 20; i++ {
				f := PairForce(ctx, rng, &ps[0], &ps[1], table.Lookup(0, 0), d, dist, dist2, true)
				Expect(f.Dot(d)).To(BeNumerically("~", 0, 1e-9))
			}
		})
	})

	It("panics on coincident particles", func() {
		Expect(table.SetParams(ctx, 0, 0, Params{Gamma: 1, Cutoff: 1})).To(Succeed())
		ps := pairAt(dynamo.Vec3{}, dynamo.Vec3{}, dynamo.Vec3{}, dynamo.Vec3{})
		Expect(func() {
			PairForce(ctx, nil, &ps[0], &ps[1], table.Lookup(0, 0), dynamo.Vec3{}, 0, 0, false)
		}).To(Panic())
	})
})

var _ = Describe("AddForces", func() {
	It("accumulates equal and opposite forces", func() {
		box := dynamo.Vec3{4, 4, 4}
		ctx := dynamo.NewContext(box)
		ctx.Temperature = 1.0
		ctx.Thermo = dynamo.ThermoDPD
		table := NewTable(2)
		Expect(table.SetParams(ctx, 0, 0, Params{Gamma: 1, Cutoff: 1.2, TransGamma: 0.5, TransCutoff: 1.2})).To(Succeed())
		Expect(table.SetParams(ctx, 0, 1, Params{Gamma: 2, Cutoff: 1.2, Weight: LinearDecay})).To(Succeed())
		ctx.MaxCut = table.MaxCutoff()

		ps := particle.Lattice(64, 2, 1.0, 1.0, box, random.New(5))
		AddForces(ctx, random.New(9), table, neighbor.NewCellList(), ps)

		var total dynamo.Vec3
		nonzero := 0
		for _, p := range ps {
			total = total.Add(p.Force)
			if p.Force != (dynamo.Vec3{}) {
				nonzero++
			}
		}
		Expect(nonzero).To(BeNumerically(">", 0))
		for i := 0; i < 3; i++ {
			Expect(total[i]).To(BeNumerically("~", 0, 1e-9))
		}
	})

	It("skips pairs without coefficients", func() {
		ctx := dynamo.NewContext(dynamo.Vec3{5, 5, 5})
		ctx.Thermo = dynamo.ThermoDPD
		ctx.MaxCut = 1.5
		table := NewTable(2)
		Expect(table.SetParams(ctx, 1, 1, Params{Gamma: 1, Cutoff: 1.5})).To(Succeed())

		ps := pairAt(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{-1, 0, 0})
		AddForces(ctx, random.New(1), table, neighbor.NewAllPairs(), ps)
		Expect(ps[0].Force).To(Equal(dynamo.Vec3{}))
		Expect(ps[1].Force).To(Equal(dynamo.Vec3{}))
	})
})

var _ = Describe("Stress", func() {
	var (
		ctx   *dynamo.Context
		table *Table
		ps    particle.Set
	)

	BeforeEach(func() {
		ctx = dynamo.NewContext(dynamo.Vec3{10, 10, 10})
		ctx.Temperature = 1.0
		ctx.Thermo = dynamo.ThermoDPD
		table = NewTable(1)
		Expect(table.SetParams(ctx, 0, 0, Params{Gamma: 1, Cutoff: 1.5})).To(Succeed())
		ps = pairAt(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{-1, 0, 0})
	})

	It("is zero when nothing can interact", func() {
		ctx.MaxCut = 0
		Expect(Stress(ctx, table, neighbor.NewAllPairs(), ps)).To(Equal(dynamo.Tensor{}))
	})

	It("sums d⊗f over the volume without touching forces", func() {
		ctx.MaxCut = table.MaxCutoff()
		s := Stress(ctx, table, neighbor.NewAllPairs(), ps)

		// d = (−1,0,0), f = (−2,0,0)
		Expect(s.At(0, 0)).To(BeNumerically("~", 2.0/1000, 1e-15))
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				if i == 0 && j == 0 {
					continue
				}
				Expect(s.At(i, j)).To(BeZero())
			}
		}
		Expect(ps[0].Force).To(Equal(dynamo.Vec3{}))
		Expect(ps[1].Force).To(Equal(dynamo.Vec3{}))
	})

	It("is reproducible", func() {
		ctx.MaxCut = table.MaxCutoff()
		a := Stress(ctx, table, neighbor.NewAllPairs(), ps)
		b := Stress(ctx, table, neighbor.NewAllPairs(), ps)
		Expect(a).To(Equal(b))
		Expect(math.IsNaN(a.Trace())).To(BeFalse())
	})
})
