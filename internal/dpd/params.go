package dpd

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/dpdsim/internal/dynamo"
)

// Params are the raw, user-supplied thermostat parameters of one type pair.
type Params struct {
	Gamma  float64
	Cutoff float64
	Weight WeightFunction

	TransGamma  float64
	TransCutoff float64
	TransWeight WeightFunction
}

func (p Params) validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"gamma", p.Gamma},
		{"r_cut", p.Cutoff},
		{"trans_gamma", p.TransGamma},
		{"trans_r_cut", p.TransCutoff},
	} {
		if v.val < 0 || math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return fmt.Errorf("%s=%g: %w", v.name, v.val, dynamo.ErrParameterBounds)
		}
	}
	if !p.Weight.Valid() {
		return fmt.Errorf("weight %d: %w", int(p.Weight), dynamo.ErrUnknownWeightFunction)
	}
	if !p.TransWeight.Valid() {
		return fmt.Errorf("trans weight %d: %w", int(p.TransWeight), dynamo.ErrUnknownWeightFunction)
	}
	return nil
}

// Coefficients holds the raw parameters and the derived prefactors the
// force kernel reads.
type Coefficients struct {
	Params

	FrictionLong  float64
	NoiseLong     float64
	FrictionTrans float64
	NoiseTrans    float64
}

func (c *Coefficients) active() bool {
	return c.Cutoff != 0 || c.TransCutoff != 0
}

func (c *Coefficients) deriveNoise(ctx *dynamo.Context) {
	c.NoiseLong = noisePrefactor(ctx.Temperature, c.Gamma, ctx.TimeStep)
	c.NoiseTrans = noisePrefactor(ctx.Temperature, c.TransGamma, ctx.TimeStep)
}

func (c *Coefficients) deriveFriction(ctx *dynamo.Context) {
	c.FrictionLong = c.Gamma / ctx.TimeStep
	c.FrictionTrans = c.TransGamma / ctx.TimeStep
}

func noisePrefactor(temperature, gamma, dt float64) float64 {
	return math.Sqrt(24.0 * temperature * gamma / dt)
}

// PairKey identifies a type pair. Keys are normalized so that A <= B; the
// thermostat is symmetric in the two types.
type PairKey struct {
	A, B int
}

func makeKey(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Broadcaster propagates a changed type pair to replicas of the table.
type Broadcaster interface {
	BroadcastTypePair(a, b int)
}

// BroadcastFunc adapts a function to Broadcaster.
type BroadcastFunc func(a, b int)

func (f BroadcastFunc) BroadcastTypePair(a, b int) { f(a, b) }

type noBroadcast struct{}

func (noBroadcast) BroadcastTypePair(int, int) {}

// Table is the per-type-pair thermostat parameter registry. Slots are
// created on first use.
type Table struct {
	maxTypes int
	slots    map[PairKey]*Coefficients
	bcast    Broadcaster
}

// NewTable creates a registry accepting type indices in [0, maxTypes).
func NewTable(maxTypes int) *Table {
	return &Table{
		maxTypes: maxTypes,
		slots:    make(map[PairKey]*Coefficients),
		bcast:    noBroadcast{},
	}
}

func (t *Table) SetBroadcaster(b Broadcaster) {
	if b == nil {
		b = noBroadcast{}
	}
	t.bcast = b
}

func (t *Table) MaxTypes() int { return t.maxTypes }

func (t *Table) validIndex(a int) bool {
	return a >= 0 && a < t.maxTypes
}

// Slot returns the mutable coefficients of a type pair, creating them
// when the pair has not been seen before.
func (t *Table) Slot(a, b int) (*Coefficients, error) {
	if !t.validIndex(a) || !t.validIndex(b) {
		return nil, fmt.Errorf("pair (%d,%d) with %d types: %w", a, b, t.maxTypes, dynamo.ErrInvalidTypeIndex)
	}
	k := makeKey(a, b)
	c, ok := t.slots[k]
	if !ok {
		c = &Coefficients{}
		t.slots[k] = c
	}
	return c, nil
}

// Lookup returns the coefficients of a type pair, or nil when the pair is
// unknown or out of range.
func (t *Table) Lookup(a, b int) *Coefficients {
	if !t.validIndex(a) || !t.validIndex(b) {
		return nil
	}
	return t.slots[makeKey(a, b)]
}

// Pairs lists the configured pairs in ascending order.
func (t *Table) Pairs() []PairKey {
	keys := make([]PairKey, 0, len(t.slots))
	for k := range t.slots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	return keys
}

// MaxCutoff is the largest longitudinal or transverse cutoff in the table.
func (t *Table) MaxCutoff() float64 {
	m := 0.0
	for _, c := range t.slots {
		m = math.Max(m, math.Max(c.Cutoff, c.TransCutoff))
	}
	return m
}

func validateContext(ctx *dynamo.Context) error {
	if !(ctx.TimeStep > 0) || math.IsInf(ctx.TimeStep, 0) {
		return fmt.Errorf("time_step=%g: %w", ctx.TimeStep, dynamo.ErrParameterBounds)
	}
	if ctx.Temperature < 0 || math.IsNaN(ctx.Temperature) || math.IsInf(ctx.Temperature, 0) {
		return fmt.Errorf("temperature=%g: %w", ctx.Temperature, dynamo.ErrParameterBounds)
	}
	return nil
}

// SetParams stores the raw parameters of a type pair and derives its
// prefactors from the context. Friction stays zero while the DPD
// thermostat is off; InitAll activates it later. The pair is broadcast
// after every successful update.
func (t *Table) SetParams(ctx *dynamo.Context, a, b int, p Params) error {
	if err := p.validate(); err != nil {
		return fmt.Errorf("pair (%d,%d): %w", a, b, err)
	}
	if err := validateContext(ctx); err != nil {
		return err
	}
	c, err := t.Slot(a, b)
	if err != nil {
		return err
	}

	c.Params = p
	c.deriveNoise(ctx)
	if ctx.DPDActive() {
		c.deriveFriction(ctx)
	} else {
		c.FrictionLong = 0
		c.FrictionTrans = 0
	}

	t.bcast.BroadcastTypePair(a, b)
	return nil
}

// InitAll recomputes all four prefactors of every pair with a nonzero
// cutoff. It is run when the thermostat is switched on. ctx.TimeStep must
// be positive.
func (t *Table) InitAll(ctx *dynamo.Context) {
	for _, c := range t.slots {
		if !c.active() {
			continue
		}
		c.deriveFriction(ctx)
		c.deriveNoise(ctx)
	}
}

// SwitchOff zeroes the friction prefactors of every pair. Noise prefactors
// and raw parameters are kept.
func (t *Table) SwitchOff() {
	for _, c := range t.slots {
		c.FrictionLong = 0
		c.FrictionTrans = 0
	}
}

// RescaleNoise multiplies both noise prefactors of every pair with a
// nonzero cutoff by scale.
func (t *Table) RescaleNoise(scale float64) {
	for _, c := range t.slots {
		if !c.active() {
			continue
		}
		c.NoiseLong *= scale
		c.NoiseTrans *= scale
	}
}

// HeatUp raises the noise amplitude by √3 for simulated annealing.
func (t *Table) HeatUp() {
	t.RescaleNoise(math.Sqrt(3))
}

// CoolDown undoes one HeatUp.
func (t *Table) CoolDown() {
	t.RescaleNoise(1.0 / math.Sqrt(3))
}

// SetThermostat switches the DPD thermostat on or off in ctx and updates
// the friction prefactors to match.
func (t *Table) SetThermostat(ctx *dynamo.Context, on bool) error {
	if !on {
		ctx.Thermo &^= dynamo.ThermoDPD
		t.SwitchOff()
		return nil
	}
	if err := validateContext(ctx); err != nil {
		return err
	}
	ctx.Thermo |= dynamo.ThermoDPD
	t.InitAll(ctx)
	return nil
}

// Retune re-derives every active pair after a temperature or time-step
// change. Friction is only restored when the thermostat is on, and any
// annealing scale is discarded.
func (t *Table) Retune(ctx *dynamo.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for _, c := range t.slots {
		if !c.active() {
			continue
		}
		c.deriveNoise(ctx)
		if ctx.DPDActive() {
			c.deriveFriction(ctx)
		} else {
			c.FrictionLong = 0
			c.FrictionTrans = 0
		}
	}
	return nil
}
