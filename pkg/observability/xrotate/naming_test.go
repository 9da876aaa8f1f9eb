package xrotate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamerName(t *testing.T) {
	ts := time.Date(2024, 3, 10, 9, 5, 7, 0, time.UTC)

	tests := []struct {
		when string
		base string
		want string
	}{
		{"S", "logs/app-info.log", "logs/app-info-2024-03-10_09-05-07.log"},
		{"M", "logs/app-info.log", "logs/app-info-2024-03-10_09-05.log"},
		{"H", "logs/app-info.log", "logs/app-info-2024-03-10_09.log"},
		{"D", "logs/app-info.log", "logs/app-info-2024-03-10.log"},
		{"MIDNIGHT", "logs/app-error.log", "logs/app-error-2024-03-10.log"},
		{"W0", "logs/app.log", "logs/app-2024-03-10.log"},
		{"MIDNIGHT", "logs/app", "logs/app-2024-03-10.log"},
	}
	for _, tt := range tests {
		t.Run(tt.when+"_"+tt.base, func(t *testing.T) {
			n := NewNamer(filepath.FromSlash(tt.base), MustPolicy(tt.when, WithUTC(true)))
			assert.Equal(t, filepath.FromSlash(tt.want), n.Name(ts))
		})
	}
}

func TestNamerName_CustomPostfix(t *testing.T) {
	p := MustPolicy("H", WithUTC(true), WithPostfix(".txt"))
	n := NewNamer("out/run.txt", p)

	ts := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "run-2024-03-10_23.txt"), n.Name(ts))
}

func TestNamerName_UsesPolicyLocation(t *testing.T) {
	shanghai := mustLoad(t, "Asia/Shanghai")
	n := NewNamer("logs/app.log", MustPolicy("MIDNIGHT", WithLocation(shanghai)))

	// UTC 16:30 已是上海次日 00:30
	ts := time.Date(2024, 3, 10, 16, 30, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("logs", "app-2024-03-11.log"), n.Name(ts))
}

func TestNamerMatch(t *testing.T) {
	n := NewNamer("logs/app-info.log", MustPolicy("M", WithUTC(true)))

	tests := []struct {
		name string
		want bool
	}{
		{"app-info-2024-03-10_09-05.log", true},
		{"app-info-2024-03-10_09.log", false},     // 粒度不符
		{"app-info-2024-03-10_09-05.log.gz", false},
		{"app-error-2024-03-10_09-05.log", false}, // 其他 handler 的文件
		{"app-info-.log", false},
		{"app-info.log", false},
		{"other.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Match(tt.name))
		})
	}
}

func TestNamerParse_RoundTrip(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	for _, when := range []string{"S", "M", "H", "D", "MIDNIGHT", "W2"} {
		t.Run(when, func(t *testing.T) {
			p := MustPolicy(when, WithLocation(ny))
			n := NewNamer("var/log/app.log", p)

			ts := NewScheduler(p).Next(time.Date(2024, 7, 4, 12, 34, 56, 0, ny))
			got, ok := n.Parse(n.Name(ts))
			require.True(t, ok)
			assert.True(t, ts.Equal(got), "want %s, got %s", ts, got)
		})
	}

	_, ok := NewNamer("var/log/app.log", MustPolicy("H")).Parse("var/log/app.log")
	assert.False(t, ok)
}
