package dpd

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dpdsim/internal/dynamo"
)

var _ = Describe("Table", func() {
	var (
		ctx   *dynamo.Context
		table *Table
		calls [][2]int
	)

	params := Params{
		Gamma: 4.5, Cutoff: 1.0, Weight: LinearDecay,
		TransGamma: 2.0, TransCutoff: 0.8, TransWeight: Constant,
	}

	BeforeEach(func() {
		ctx = dynamo.NewContext(dynamo.Vec3{10, 10, 10})
		ctx.Temperature = 1.3
		ctx.TimeStep = 0.005
		ctx.Thermo = dynamo.ThermoDPD
		table = NewTable(3)
		calls = nil
		table.SetBroadcaster(BroadcastFunc(func(a, b int) {
			calls = append(calls, [2]int{a, b})
		}))
	})

	Describe("SetParams", func() {
		It("derives the noise prefactors from temperature, friction and time step", func() {
			Expect(table.SetParams(ctx, 0, 1, params)).To(Succeed())

			c := table.Lookup(0, 1)
			Expect(c).NotTo(BeNil())
			Expect(c.NoiseLong).To(Equal(math.Sqrt(24 * ctx.Temperature * params.Gamma / ctx.TimeStep)))
			Expect(c.NoiseTrans).To(Equal(math.Sqrt(24 * ctx.Temperature * params.TransGamma / ctx.TimeStep)))
			Expect(c.FrictionLong).To(Equal(params.Gamma / ctx.TimeStep))
			Expect(c.FrictionTrans).To(Equal(params.TransGamma / ctx.TimeStep))
			Expect(c.Params).To(Equal(params))
		})

		It("resolves both orders of a pair to the same slot", func() {
			Expect(table.SetParams(ctx, 2, 1, params)).To(Succeed())
			Expect(table.Lookup(1, 2)).To(BeIdenticalTo(table.Lookup(2, 1)))
			Expect(table.Pairs()).To(Equal([]PairKey{{A: 1, B: 2}}))
		})

		It("leaves friction off while the thermostat is inactive", func() {
			ctx.Thermo = dynamo.ThermoOff
			Expect(table.SetParams(ctx, 0, 0, params)).To(Succeed())

			c := table.Lookup(0, 0)
			Expect(c.FrictionLong).To(BeZero())
			Expect(c.FrictionTrans).To(BeZero())
			Expect(c.NoiseLong).To(BeNumerically(">", 0))
		})

		It("broadcasts every successful update", func() {
			Expect(table.SetParams(ctx, 0, 2, params)).To(Succeed())
			Expect(table.SetParams(ctx, 1, 1, params)).To(Succeed())
			Expect(calls).To(Equal([][2]int{{0, 2}, {1, 1}}))
		})

		DescribeTable("rejects invalid input at set time",
			func(a, b int, p Params, dt float64, want error) {
				ctx.TimeStep = dt
				err := table.SetParams(ctx, a, b, p)
				Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
				Expect(calls).To(BeEmpty())
				Expect(table.Pairs()).To(BeEmpty())
			},
			Entry("negative type", -1, 0, params, 0.01, dynamo.ErrInvalidTypeIndex),
			Entry("type past the registry", 0, 3, params, 0.01, dynamo.ErrInvalidTypeIndex),
			Entry("negative gamma", 0, 0, Params{Gamma: -1, Cutoff: 1}, 0.01, dynamo.ErrParameterBounds),
			Entry("NaN cutoff", 0, 0, Params{Gamma: 1, Cutoff: math.NaN()}, 0.01, dynamo.ErrParameterBounds),
			Entry("unknown weight", 0, 0, Params{Gamma: 1, Cutoff: 1, Weight: 7}, 0.01, dynamo.ErrUnknownWeightFunction),
			Entry("unknown transverse weight", 0, 0, Params{TransWeight: -2}, 0.01, dynamo.ErrUnknownWeightFunction),
			Entry("zero time step", 0, 0, params, 0.0, dynamo.ErrParameterBounds),
		)
	})

	Describe("bulk operations", func() {
		BeforeEach(func() {
			Expect(table.SetParams(ctx, 0, 0, params)).To(Succeed())
			Expect(table.SetParams(ctx, 0, 1, Params{Gamma: 1, Cutoff: 1.2})).To(Succeed())
			_, err := table.Slot(2, 2)
			Expect(err).NotTo(HaveOccurred())
		})

		It("switches friction off and restores it on InitAll", func() {
			before := table.Lookup(0, 0).NoiseLong
			table.SwitchOff()

			for _, k := range table.Pairs() {
				c := table.Lookup(k.A, k.B)
				Expect(c.FrictionLong).To(BeZero())
				Expect(c.FrictionTrans).To(BeZero())
			}
			Expect(table.Lookup(0, 0).NoiseLong).To(Equal(before))
			Expect(table.Lookup(0, 0).Gamma).To(Equal(params.Gamma))

			table.InitAll(ctx)
			Expect(table.Lookup(0, 0).FrictionLong).To(Equal(params.Gamma / ctx.TimeStep))
			Expect(table.Lookup(0, 0).FrictionTrans).To(Equal(params.TransGamma / ctx.TimeStep))
			Expect(table.Lookup(0, 1).FrictionLong).To(Equal(1 / ctx.TimeStep))
		})

		It("skips pairs without a cutoff", func() {
			table.InitAll(ctx)
			table.HeatUp()
			c := table.Lookup(2, 2)
			Expect(*c).To(Equal(Coefficients{}))
		})

		It("restores noise after heat up followed by cool down", func() {
			want := map[PairKey][2]float64{}
			for _, k := range table.Pairs() {
				c := table.Lookup(k.A, k.B)
				want[k] = [2]float64{c.NoiseLong, c.NoiseTrans}
			}

			table.HeatUp()
			Expect(table.Lookup(0, 0).NoiseLong).To(BeNumerically("~", want[PairKey{0, 0}][0]*math.Sqrt(3), 1e-9))
			table.CoolDown()

			for k, w := range want {
				c := table.Lookup(k.A, k.B)
				Expect(c.NoiseLong).To(BeNumerically("~", w[0], 1e-12*w[0]+1e-300))
				Expect(c.NoiseTrans).To(BeNumerically("~", w[1], 1e-12*w[1]+1e-300))
			}
		})

		It("does not touch friction when rescaling noise", func() {
			f := table.Lookup(0, 0).FrictionLong
			table.RescaleNoise(2)
			Expect(table.Lookup(0, 0).FrictionLong).To(Equal(f))
		})

		It("reports the largest cutoff", func() {
			Expect(table.MaxCutoff()).To(Equal(1.2))
		})
	})

	Describe("thermostat switching", func() {
		BeforeEach(func() {
			Expect(table.SetParams(ctx, 0, 0, params)).To(Succeed())
		})

		It("keeps the noise amplitude while friction is off", func() {
			table.HeatUp()
			heated := table.Lookup(0, 0).NoiseLong

			Expect(table.SetThermostat(ctx, false)).To(Succeed())
			Expect(ctx.DPDActive()).To(BeFalse())
			Expect(table.Lookup(0, 0).NoiseLong).To(Equal(heated))
			Expect(table.Lookup(0, 0).FrictionLong).To(BeZero())

			Expect(table.SetThermostat(ctx, true)).To(Succeed())
			Expect(ctx.DPDActive()).To(BeTrue())
			Expect(table.Lookup(0, 0).FrictionLong).To(Equal(params.Gamma / ctx.TimeStep))
		})

		It("retunes after a temperature change without enabling friction", func() {
			Expect(table.SetThermostat(ctx, false)).To(Succeed())
			ctx.Temperature = 2.0
			Expect(table.Retune(ctx)).To(Succeed())

			c := table.Lookup(0, 0)
			Expect(c.NoiseLong).To(Equal(math.Sqrt(24 * 2.0 * params.Gamma / ctx.TimeStep)))
			Expect(c.FrictionLong).To(BeZero())
		})

		It("refuses to retune with a negative temperature", func() {
			ctx.Temperature = -1
			Expect(errors.Is(table.Retune(ctx), dynamo.ErrParameterBounds)).To(BeTrue())
		})
	})
})

var _ = Describe("WeightFunction", func() {
	It("vanishes at the cutoff for linear decay", func() {
		rc := 1.7
		Expect(weight(LinearDecay, rc, 1/rc)).To(BeNumerically("~", 0, 1e-15))
	})

	It("is 1/r for constant weighting", func() {
		for _, r := range []float64{0.1, 0.5, 0.99} {
			Expect(weight(Constant, 1.0, 1/r)).To(Equal(1 / r))
		}
	})

	It("panics on an undefined law", func() {
		Expect(func() { weight(WeightFunction(9), 1, 1) }).To(Panic())
	})

	DescribeTable("parses run-file names",
		func(in string, want WeightFunction) {
			got, err := ParseWeightFunction(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
			Expect(got.Valid()).To(BeTrue())
		},
		Entry("empty", "", Constant),
		Entry("constant", "Constant", Constant),
		Entry("linear", "linear", LinearDecay),
		Entry("numeric", "1", LinearDecay),
	)

	It("rejects unknown names", func() {
		_, err := ParseWeightFunction("gaussian")
		Expect(errors.Is(err, dynamo.ErrUnknownWeightFunction)).To(BeTrue())
		Expect(WeightFunction(5).String()).To(Equal("WeightFunction(5)"))
		Expect(LinearDecay.String()).To(Equal("linear"))
	})
})
