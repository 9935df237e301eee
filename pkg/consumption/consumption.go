package consumption

import (
	"math"

	"github.com/ja7ad/bgquota/pkg/system/util"
)

// Accumulator keeps running energy and averages for the background
// cost estimate.
type Accumulator struct {
	cfg        *Config
	energyCumJ float64
	count      int
	sumPCPU    float64
	sumPDisk   float64
	sumPTotal  float64
}

// New creates an accumulator with the given config. A nil cfg falls
// back to DefaultConfig.
func New(cfg *Config) *Accumulator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Accumulator{cfg: cfg}
}

// Apply runs the model on a single dimension sample (one tick's worth
// of one resource dimension), returns the power split, and updates
// cumulative energy/averages.
//
// It assumes snap.TimeSec ~ your sampling interval (dt). Energy is
// accumulated as:
//
//	E_cum += P_total * dt
func (a *Accumulator) Apply(snap Sample) Result {
	uvm := util.Clamp01(snap.CPUUtil)
	share := util.Clamp01(snap.CPUShare)

	// CPU dynamic power at whole-dimension level, attributed to
	// background groups by their measured share of it.
	pdyn := (a.cfg.PMax - a.cfg.PIdle) * util.Pow(uvm, a.cfg.Gamma)
	pcpu := share * pdyn

	dt := math.Max(snap.TimeSec, 1e-6)
	pdisk := a.cfg.EIO * util.NonNegative(snap.IOBytesPerSec)

	ptot := pcpu + pdisk

	a.energyCumJ += ptot * dt
	a.count++
	a.sumPCPU += pcpu
	a.sumPDisk += pdisk
	a.sumPTotal += ptot

	return Result{PCPU: pcpu, PDisk: pdisk, PTotal: ptot}
}

// EnergyCumJ returns cumulative energy in Joules.
func (a *Accumulator) EnergyCumJ() float64 { return a.energyCumJ }

// Averages returns average powers over all applied samples.
func (a *Accumulator) Averages() Result {
	if a.count == 0 {
		return Result{}
	}
	n := float64(a.count)
	return Result{
		PCPU:   a.sumPCPU / n,
		PDisk:  a.sumPDisk / n,
		PTotal: a.sumPTotal / n,
	}
}
