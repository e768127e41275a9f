package printcheck

import "github.com/banshee-data/route-sculpture/internal/sculpture"

// Status is the coarse verdict of QuickStatus.
type Status string

const (
	StatusReady   Status = "ready"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// QuickResult is a config-only verdict.
type QuickResult struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Quick-status gates.
const (
	QuickMaxSizeCM         = 20.0
	QuickMaxElevationScale = 3.0
)

// QuickStatus judges cfg without any geometry, for use before a scene exists.
// It is ready only when every gate passes.
func QuickStatus(cfg sculpture.Config) QuickResult {
	switch {
	case !cfg.ShowBase:
		return QuickResult{StatusError, "Enable the base for a printable model"}
	case cfg.BaseHeight < MinBaseHeightMM:
		return QuickResult{StatusWarning, "Base may be too thin for a stable print"}
	case cfg.Size > QuickMaxSizeCM:
		return QuickResult{StatusWarning, "Large size may not fit standard printers"}
	case cfg.ElevationScale > QuickMaxElevationScale:
		return QuickResult{StatusWarning, "High elevation scale may need supports"}
	}
	return QuickResult{StatusReady, "Ready to print"}
}
