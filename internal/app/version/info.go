// Package version provides version information for the application.
package version

import (
	"fmt"
	"runtime"
	"time"
)

// 构建时通过 ldflags 注入
var (
	Version   = "v0.1.0"
	Commit    = "unknown"
	BuildTime = "unknown" // RFC3339
)

// BuildInfo 构建信息
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetBuildInfo 获取完整构建信息
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetFullVersion 多行版本信息
func GetFullVersion() string {
	info := GetBuildInfo()

	s := fmt.Sprintf("expansion %s (%s)", info.Version, info.Commit)
	if info.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
			s += fmt.Sprintf("\n构建时间: %s", t.Format("2006-01-02 15:04:05 MST"))
		} else {
			s += fmt.Sprintf("\n构建时间: %s", info.BuildTime)
		}
	}
	s += fmt.Sprintf("\nGo版本: %s", info.GoVersion)
	s += fmt.Sprintf("\n平台: %s", info.Platform)
	return s
}
