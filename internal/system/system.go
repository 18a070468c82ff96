package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// PerWorkerMemory is the peak memory one page in flight needs: a 300 DPI A4 scan in
// BGR plus the gray, blurred and thresholded copies and the extracted regions.
const PerWorkerMemory = 160 << 20

// Resources is a snapshot of what the host can give to page processing.
type Resources struct {
	CPUs            int
	AvailableMemory uint64
}

// Probe reads the logical CPU count and available memory. Fields it cannot read are zero.
func Probe() Resources {
	var r Resources
	if n, err := cpu.Counts(true); err == nil {
		r.CPUs = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		r.AvailableMemory = vm.Available
	}
	return r
}

// WorkerBudget returns requested when it is positive. Otherwise it returns one worker
// per CPU, capped so that every worker fits in available memory, and never below one.
func WorkerBudget(requested int, r Resources) int {
	if requested > 0 {
		return requested
	}

	workers := r.CPUs
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if r.AvailableMemory > 0 {
		if byMemory := int(r.AvailableMemory / PerWorkerMemory); byMemory < workers {
			workers = byMemory
		}
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
