package agent

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type HostStats struct {
	CPUPercent  float64
	MemoryUsed  uint64
	MemoryTotal uint64
}

// Sampler reports the load of the host the agent runs on.
type Sampler func() (HostStats, error)

func HostSampler() (HostStats, error) {
	var stats HostStats
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return stats, err
	}
	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return stats, err
	}
	stats.MemoryUsed = vm.Used
	stats.MemoryTotal = vm.Total
	return stats, nil
}
