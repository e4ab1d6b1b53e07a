package telemetry_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"codeberg.org/mutker/hoststate/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmptySnapshot(t *testing.T) {
	for name, raw := range map[string]telemetry.RawSnapshot{
		"nil":   nil,
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			s := telemetry.Normalize(raw)

			assert.Equal(t, telemetry.Unknown, s.Hostname)
			assert.Equal(t, telemetry.Unknown, s.SystemName)
			assert.Equal(t, telemetry.Unknown, s.OSVersion)
			assert.Equal(t, telemetry.Unknown, s.KernelVersion)
			assert.Equal(t, telemetry.Unknown, s.CPUBrand)
			assert.Zero(t, s.TotalMemory)
			assert.Zero(t, s.UsedMemory)
			assert.Zero(t, s.CPUCount)
			assert.Equal(t, 0.0, s.MemoryUsagePercentage)
			assert.Equal(t, 0.0, s.CPUUsage)
			require.NotNil(t, s.Disks)
			assert.Empty(t, s.Disks)
		})
	}
}

func TestNormalizeMistypedFields(t *testing.T) {
	raw := telemetry.RawSnapshot{
		"hostname":       42,
		"name":           []any{"linux"},
		"os_version":     nil,
		"kernel_version": true,
		"total_memory":   "16GiB",
		"used_memory":    -5,
		"cpu_count":      3.5,
		"cpus":           "many",
		"disks":          map[string]any{"name": "sda"},
	}

	s := telemetry.Normalize(raw)

	assert.Equal(t, telemetry.Unknown, s.Hostname)
	assert.Equal(t, telemetry.Unknown, s.SystemName)
	assert.Equal(t, telemetry.Unknown, s.OSVersion)
	assert.Equal(t, telemetry.Unknown, s.KernelVersion)
	assert.Zero(t, s.TotalMemory)
	assert.Zero(t, s.UsedMemory)
	assert.Zero(t, s.CPUCount)
	assert.Equal(t, telemetry.Unknown, s.CPUBrand)
	assert.Equal(t, 0.0, s.CPUUsage)
	assert.Empty(t, s.Disks)
}

func TestNormalizeFullSnapshot(t *testing.T) {
	raw := telemetry.RawSnapshot{
		"hostname":       "workstation",
		"name":           "Linux",
		"os_version":     "24.04",
		"kernel_version": "6.8.0",
		"total_memory":   uint64(1000),
		"used_memory":    uint64(250),
		"cpu_count":      4,
		"cpus": []any{
			map[string]any{"brand": "Ryzen 7", "cpu_usage": 0.5},
			map[string]any{"brand": "Ryzen 7", "cpu_usage": 0.25},
		},
		"disks": []any{
			map[string]any{
				"name":            "nvme0n1p2",
				"mount_point":     "/",
				"total_space":     200,
				"available_space": 50,
				"file_system":     "ext4",
			},
			map[string]any{
				"name":            "sdb1",
				"mount_point":     "/mnt/backup",
				"total_space":     0,
				"available_space": 100,
			},
		},
	}

	s := telemetry.Normalize(raw)

	assert.Equal(t, "workstation", s.Hostname)
	assert.Equal(t, "Linux", s.SystemName)
	assert.Equal(t, "24.04", s.OSVersion)
	assert.Equal(t, "6.8.0", s.KernelVersion)
	assert.Equal(t, uint64(1000), s.TotalMemory)
	assert.Equal(t, uint64(250), s.UsedMemory)
	assert.Equal(t, 25.0, s.MemoryUsagePercentage)
	assert.Equal(t, uint64(4), s.CPUCount)
	assert.Equal(t, "Ryzen 7", s.CPUBrand)
	assert.Equal(t, 37.5, s.CPUUsage)

	require.Len(t, s.Disks, 2)
	assert.Equal(t, "nvme0n1p2", s.Disks[0].Name)
	assert.Equal(t, "/", s.Disks[0].MountPoint)
	assert.Equal(t, 75.0, s.Disks[0].UsagePercentage)
	require.NotNil(t, s.Disks[0].FileSystem)
	assert.Equal(t, "ext4", *s.Disks[0].FileSystem)

	assert.Equal(t, "sdb1", s.Disks[1].Name)
	assert.Equal(t, 0.0, s.Disks[1].UsagePercentage)
	assert.Nil(t, s.Disks[1].FileSystem)
}

func TestSystemNameFallbackKey(t *testing.T) {
	s := telemetry.Normalize(telemetry.RawSnapshot{"system_name": "Darwin"})
	assert.Equal(t, "Darwin", s.SystemName)

	s = telemetry.Normalize(telemetry.RawSnapshot{"name": "Linux", "system_name": "Darwin"})
	assert.Equal(t, "Linux", s.SystemName)
}

func TestDiskUsagePercentage(t *testing.T) {
	tests := []struct {
		name      string
		total     any
		available any
		want      float64
	}{
		{"zero total", 0, 50, 0.0},
		{"zero total zero available", 0, 0, 0.0},
		{"three quarters used", 200, 50, 75.0},
		{"empty disk", 200, 200, 0.0},
		{"full disk", 200, 0, 100.0},
		{"available exceeds total", 100, 150, 0.0},
		{"missing available", 100, nil, 100.0},
		{"missing total", nil, 10, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disk := map[string]any{}
			if tt.total != nil {
				disk["total_space"] = tt.total
			}
			if tt.available != nil {
				disk["available_space"] = tt.available
			}

			s := telemetry.Normalize(telemetry.RawSnapshot{"disks": []any{disk}})
			require.Len(t, s.Disks, 1)
			assert.Equal(t, tt.want, s.Disks[0].UsagePercentage)
			assert.GreaterOrEqual(t, s.Disks[0].UsagePercentage, 0.0)
		})
	}
}

func TestDiskDefaults(t *testing.T) {
	s := telemetry.Normalize(telemetry.RawSnapshot{"disks": []any{"garbage", map[string]any{"file_system": 7}}})

	require.Len(t, s.Disks, 2)
	for _, d := range s.Disks {
		assert.Equal(t, telemetry.Unknown, d.Name)
		assert.Equal(t, telemetry.Unknown, d.MountPoint)
		assert.Zero(t, d.TotalSpace)
		assert.Zero(t, d.AvailableSpace)
		assert.Equal(t, 0.0, d.UsagePercentage)
		assert.Nil(t, d.FileSystem)
	}
}

func TestDiskOrderPreserved(t *testing.T) {
	names := []string{"zeta", "alpha", "mid"}
	disks := make([]any, 0, len(names))
	for _, n := range names {
		disks = append(disks, map[string]any{"name": n})
	}

	s := telemetry.Normalize(telemetry.RawSnapshot{"disks": disks})

	got := make([]string, 0, len(s.Disks))
	for _, d := range s.Disks {
		got = append(got, d.Name)
	}
	assert.Equal(t, names, got)
}

func TestCPUUsageScale(t *testing.T) {
	tests := []struct {
		name  string
		usage []any
		want  float64
	}{
		{"fraction", []any{0.42}, 42.0},
		{"percentage", []any{42.0}, 42.0},
		{"boundary treated as fraction", []any{1.0}, 100.0},
		{"just above boundary", []any{1.5}, 1.5},
		{"averaged fractions", []any{0.2, 0.6}, 40.0},
		{"averaged percentages", []any{30.0, 50.0}, 40.0},
		{"integer percentages", []any{30, 50}, 40.0},
		{"skip missing usage", []any{0.5, nil, "busy"}, 50.0},
		{"all missing", []any{nil, "busy"}, 0.0},
		{"clamped", []any{250.0}, 100.0},
		{"negative", []any{-0.5}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpus := make([]any, 0, len(tt.usage))
			for _, u := range tt.usage {
				core := map[string]any{"brand": "x"}
				if u != nil {
					core["cpu_usage"] = u
				}
				cpus = append(cpus, core)
			}

			s := telemetry.Normalize(telemetry.RawSnapshot{"cpus": cpus})
			assert.InDelta(t, tt.want, s.CPUUsage, 1e-9)
		})
	}
}

func TestCPUUsageEmptyList(t *testing.T) {
	s := telemetry.Normalize(telemetry.RawSnapshot{"cpus": []any{}})
	assert.Equal(t, 0.0, s.CPUUsage)
	assert.Equal(t, telemetry.Unknown, s.CPUBrand)
}

func TestCPUBrandFromFirstCore(t *testing.T) {
	s := telemetry.Normalize(telemetry.RawSnapshot{"cpus": []any{
		map[string]any{"cpu_usage": 0.1},
		map[string]any{"brand": "second"},
	}})
	assert.Equal(t, telemetry.Unknown, s.CPUBrand)

	s = telemetry.Normalize(telemetry.RawSnapshot{"cpus": []map[string]any{{"brand": "typed"}}})
	assert.Equal(t, "typed", s.CPUBrand)
}

func TestMemoryPercentage(t *testing.T) {
	tests := []struct {
		name  string
		total any
		used  any
		want  float64
	}{
		{"zero total", 0, 100, 0.0},
		{"half", 2048, 1024, 50.0},
		{"over committed clamps", 100, 150, 100.0},
		{"fractional total ignored", 100.5, 50, 0.0},
		{"json number", json.Number("400"), json.Number("100"), 25.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := telemetry.Normalize(telemetry.RawSnapshot{"total_memory": tt.total, "used_memory": tt.used})
			assert.Equal(t, tt.want, s.MemoryUsagePercentage)
		})
	}
}

func TestRawSnapshotUint(t *testing.T) {
	raw := telemetry.RawSnapshot{
		"u8":       uint8(7),
		"int":      12,
		"neg":      -1,
		"float":    float64(1 << 40),
		"fraction": 0.5,
		"huge":     math.Exp2(64),
		"nan":      math.NaN(),
		"bignum":   json.Number("18446744073709551615"),
		"badnum":   json.Number("1e400"),
		"str":      "12",
	}

	tests := []struct {
		key  string
		want uint64
		ok   bool
	}{
		{"u8", 7, true},
		{"int", 12, true},
		{"neg", 0, false},
		{"float", 1 << 40, true},
		{"fraction", 0, false},
		{"huge", 0, false},
		{"nan", 0, false},
		{"bignum", math.MaxUint64, true},
		{"badnum", 0, false},
		{"str", 0, false},
		{"absent", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := raw.Uint(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeFromJSON(t *testing.T) {
	doc := `{
		"hostname": "box",
		"total_memory": 18446744073709551615,
		"used_memory": 0,
		"cpus": [{"brand": "Xeon", "cpu_usage": 0.42}],
		"disks": [{"name": "sda", "total_space": 200, "available_space": 50, "file_system": null}]
	}`

	raw, err := telemetry.DecodeSnapshot(strings.NewReader(doc), telemetry.FormatJSON)
	require.NoError(t, err)

	s := telemetry.Normalize(raw)
	assert.Equal(t, "box", s.Hostname)
	assert.Equal(t, uint64(math.MaxUint64), s.TotalMemory)
	assert.Equal(t, "Xeon", s.CPUBrand)
	assert.InDelta(t, 42.0, s.CPUUsage, 1e-9)
	require.Len(t, s.Disks, 1)
	assert.Equal(t, 75.0, s.Disks[0].UsagePercentage)
	assert.Nil(t, s.Disks[0].FileSystem)
}

func TestSummaryJSONShape(t *testing.T) {
	s := telemetry.Normalize(telemetry.RawSnapshot{"disks": []any{map[string]any{"name": "sda"}}})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, key := range []string{
		"hostname", "system_name", "os_version", "kernel_version",
		"total_memory", "used_memory", "memory_usage_percentage",
		"cpu_count", "cpu_brand", "cpu_usage", "disks",
	} {
		assert.Contains(t, decoded, key)
	}

	disks := decoded["disks"].([]any)
	disk := disks[0].(map[string]any)
	assert.Contains(t, disk, "file_system")
	assert.Nil(t, disk["file_system"])
}
