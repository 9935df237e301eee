package consumption

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expect(cfg *Config, s Sample) (pcpu, pdisk, ptotal float64) {
	uvm := s.CPUUtil
	if uvm < 0 {
		uvm = 0
	}
	if uvm > 1 {
		uvm = 1
	}
	share := s.CPUShare
	if share < 0 {
		share = 0
	}
	if share > 1 {
		share = 1
	}

	pdyn := (cfg.PMax - cfg.PIdle) * math.Pow(uvm, cfg.Gamma)
	pcpu = share * pdyn

	io := s.IOBytesPerSec
	if io < 0 {
		io = 0
	}
	pdisk = cfg.EIO * io

	ptotal = pcpu + pdisk
	return
}

func TestConsumption_Sequence_WithLogs(t *testing.T) {
	cfg := &Config{
		PIdle: 5,
		PMax:  20,
		Gamma: 1.3,
		EIO:   7.0e-8,
	}
	acc := New(cfg)

	samples := []Sample{
		{TimeSec: 1.0, CPUUtil: 0.10, CPUShare: 0.50, IOBytesPerSec: 1_000_000},
		{TimeSec: 1.0, CPUUtil: 0.25, CPUShare: 0.48, IOBytesPerSec: 3_000_000},
		{TimeSec: 1.0, CPUUtil: 0.50, CPUShare: 0.50, IOBytesPerSec: 6_000_000},
		{TimeSec: 1.0, CPUUtil: 0.80, CPUShare: 0.50, IOBytesPerSec: 12_000_000},
	}

	var sumPCPU, sumPDisk, sumPT float64
	var sumE float64

	t.Logf("# tick,  util,  share |   P_cpu(W)   P_disk(W)  |  P_total(W)   E_cum(J)")
	for i, s := range samples {
		res := acc.Apply(s)
		sumPCPU += res.PCPU
		sumPDisk += res.PDisk
		sumPT += res.PTotal
		sumE += res.PTotal * s.TimeSec

		expPCPU, expPDisk, expPT := expect(cfg, s)
		require.InDelta(t, expPCPU, res.PCPU, 1e-9, "pcpu mismatch at tick %d", i)
		require.InDelta(t, expPDisk, res.PDisk, 1e-9, "pdisk mismatch at tick %d", i)
		require.InDelta(t, expPT, res.PTotal, 1e-9, "ptotal mismatch at tick %d", i)

		t.Logf("%5d, %5.2f, %5.2f | %10.4f %11.4f | %11.4f %11.4f",
			i+1, s.CPUUtil, s.CPUShare, res.PCPU, res.PDisk, res.PTotal, acc.EnergyCumJ())
	}

	assert.InDelta(t, sumE, acc.EnergyCumJ(), 1e-9)

	avg := acc.Averages()
	n := float64(len(samples))
	assert.InDelta(t, sumPCPU/n, avg.PCPU, 1e-12)
	assert.InDelta(t, sumPDisk/n, avg.PDisk, 1e-12)
	assert.InDelta(t, sumPT/n, avg.PTotal, 1e-12)

	t.Log("---- summary (averages) ----")
	t.Logf("avg P(cpu)  : %.6f W", avg.PCPU)
	t.Logf("avg P(disk) : %.6f W", avg.PDisk)
	t.Logf("avg P(total): %.6f W", avg.PTotal)
	t.Logf("E_cum       : %.6f J", acc.EnergyCumJ())
}

func TestConsumption_ZeroAndClampPaths_WithLogs(t *testing.T) {
	cfg := DefaultConfig()
	acc := New(cfg)

	cases := []Sample{
		// util=0 -> no CPU allocation; only disk contributes
		{TimeSec: 1, CPUUtil: 0, CPUShare: 0.9, IOBytesPerSec: 2_000_000},
		// clamp share<0 and util>1
		{TimeSec: 1, CPUUtil: 1.5, CPUShare: -0.5, IOBytesPerSec: -100},
	}

	for i, s := range cases {
		res := acc.Apply(s)
		expPCPU, expPDisk, expPT := expect(cfg, s)

		require.InDelta(t, expPCPU, res.PCPU, 1e-9, "pcpu (case %d)", i)
		require.InDelta(t, expPDisk, res.PDisk, 1e-9, "pdisk (case %d)", i)
		require.InDelta(t, expPT, res.PTotal, 1e-9, "ptotal (case %d)", i)

		t.Logf("case %d: util=%.2f share=%.2f -> P(cpu)=%.6f P(disk)=%.6f P(total)=%.6f E_cum=%.6f",
			i+1, s.CPUUtil, s.CPUShare, res.PCPU, res.PDisk, res.PTotal, acc.EnergyCumJ())
	}
}

func TestConsumption_AveragesOverMany_WithLogs(t *testing.T) {
	cfg := DefaultConfig()
	acc := New(cfg)

	var totalPT float64
	for i := 0; i < 20; i++ {
		util := 0.3 + 0.02*float64(i%5)
		share := 0.4 + 0.01*float64(i%3)
		io := float64(200_000 * (1 + (i % 4)))
		s := Sample{TimeSec: 1.0, CPUUtil: util, CPUShare: share, IOBytesPerSec: io}
		res := acc.Apply(s)
		totalPT += res.PTotal
		t.Logf("tick %02d: util=%.3f share=%.3f -> Ptotal=%.6fW E_cum=%.6fJ",
			i+1, util, share, res.PTotal, acc.EnergyCumJ())
	}

	avg := acc.Averages()
	require.Greater(t, avg.PTotal, 0.0)
	assert.InDelta(t, totalPT/20.0, avg.PTotal, 1e-12)

	t.Log("---- 20-sample summary ----")
	t.Logf("avg P(total): %.6f W", avg.PTotal)
	t.Logf("E_cum       : %.6f J", acc.EnergyCumJ())
}

func ExampleAccumulator_logging() {
	acc := New(DefaultConfig())
	s := Sample{TimeSec: 1, CPUUtil: 0.5, CPUShare: 0.25, IOBytesPerSec: 1_000_000}
	r := acc.Apply(s)
	fmt.Printf("P(cpu)=%.3fW P(total)=%.3fW E=%.3fJ\n", r.PCPU, r.PTotal, acc.EnergyCumJ())
}
