package telemetry

const (
	percentScale = 100.0

	// fractionThreshold separates fractional usage averages from ones that are
	// already percentages. An average at or below it is treated as a fraction,
	// so a genuine 0.99% average is read as 99%. Known approximation.
	fractionThreshold = 1.0
)

// Normalize converts a raw snapshot into a SystemSummary. It never fails:
// every missing or mistyped field falls back to "Unknown", zero or an empty
// list, and every percentage is guarded against division by zero and clamped
// into [0, 100].
func Normalize(raw RawSnapshot) SystemSummary {
	summary := SystemSummary{
		Hostname:      raw.stringOr(Unknown, "hostname"),
		SystemName:    raw.stringOr(Unknown, "name", "system_name"),
		OSVersion:     raw.stringOr(Unknown, "os_version"),
		KernelVersion: raw.stringOr(Unknown, "kernel_version"),
		TotalMemory:   raw.uintOr("total_memory"),
		UsedMemory:    raw.uintOr("used_memory"),
		CPUCount:      raw.uintOr("cpu_count"),
	}

	summary.MemoryUsagePercentage = percentage(summary.UsedMemory, summary.TotalMemory)

	cpus, _ := raw.List("cpus")
	summary.CPUBrand = cpuBrand(cpus)
	summary.CPUUsage = averageCPUUsage(cpus)

	disks, _ := raw.List("disks")
	summary.Disks = make([]DiskSummary, 0, len(disks))
	for _, entry := range disks {
		summary.Disks = append(summary.Disks, normalizeDisk(entry))
	}

	return summary
}

func cpuBrand(cpus []any) string {
	if len(cpus) == 0 {
		return Unknown
	}
	first, ok := toObject(cpus[0])
	if !ok {
		return Unknown
	}
	return first.stringOr(Unknown, "brand")
}

// averageCPUUsage averages the cores that reported a usage value and then
// decides the scale once, on the average, not per core.
func averageCPUUsage(cpus []any) float64 {
	var (
		sum          float64
		contributing int
	)

	for _, entry := range cpus {
		core, ok := toObject(entry)
		if !ok {
			continue
		}
		usage, ok := core.Float("cpu_usage")
		if !ok {
			continue
		}
		sum += usage
		contributing++
	}

	if contributing == 0 {
		return 0.0
	}

	avg := sum / float64(contributing)
	if avg <= fractionThreshold {
		avg *= percentScale
	}

	return clampPercentage(avg)
}

func normalizeDisk(entry any) DiskSummary {
	disk, _ := toObject(entry)

	summary := DiskSummary{
		Name:           disk.stringOr(Unknown, "name"),
		MountPoint:     disk.stringOr(Unknown, "mount_point"),
		TotalSpace:     disk.uintOr("total_space"),
		AvailableSpace: disk.uintOr("available_space"),
	}

	if fs, ok := disk.String("file_system"); ok {
		summary.FileSystem = &fs
	}

	var used uint64
	if summary.AvailableSpace < summary.TotalSpace {
		used = summary.TotalSpace - summary.AvailableSpace
	}
	summary.UsagePercentage = percentage(used, summary.TotalSpace)

	return summary
}

func percentage(part, total uint64) float64 {
	if total == 0 {
		return 0.0
	}
	return clampPercentage(float64(part) / float64(total) * percentScale)
}

func clampPercentage(p float64) float64 {
	if p < 0 {
		return 0.0
	}
	if p > percentScale {
		return percentScale
	}
	return p
}
