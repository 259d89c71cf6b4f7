package system

import (
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryStats reports the memory situation ahead of a synthesis run.
type MemoryStats struct {
	AvailableMB uint64
	UsedPercent float64
}

// Memory returns current memory availability. Errors are swallowed into a
// zero value: the stats are advisory and must never block a render.
func Memory() MemoryStats {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStats{}
	}
	return MemoryStats{
		AvailableMB: vm.Available / (1024 * 1024),
		UsedPercent: vm.UsedPercent,
	}
}
