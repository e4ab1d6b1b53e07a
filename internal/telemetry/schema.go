package telemetry

// Unknown is the placeholder for any string field the snapshot did not provide
const Unknown = "Unknown"

// SystemSummary is the canonical, always-valid view of a raw snapshot.
// Percentages are within [0, 100].
type SystemSummary struct {
	Hostname      string `json:"hostname"`
	SystemName    string `json:"system_name"`
	OSVersion     string `json:"os_version"`
	KernelVersion string `json:"kernel_version"`

	TotalMemory           uint64  `json:"total_memory"`
	UsedMemory            uint64  `json:"used_memory"`
	MemoryUsagePercentage float64 `json:"memory_usage_percentage"`

	CPUCount uint64  `json:"cpu_count"`
	CPUBrand string  `json:"cpu_brand"`
	CPUUsage float64 `json:"cpu_usage"`

	Disks []DiskSummary `json:"disks"`
}

// DiskSummary describes one disk in input order. FileSystem is nil when the
// snapshot did not name one.
type DiskSummary struct {
	Name            string  `json:"name"`
	MountPoint      string  `json:"mount_point"`
	TotalSpace      uint64  `json:"total_space"`
	AvailableSpace  uint64  `json:"available_space"`
	UsagePercentage float64 `json:"usage_percentage"`
	FileSystem      *string `json:"file_system"`
}
