// ABOUTME: Version information for the player
// ABOUTME: Reported in logs and the TUI header
package version

const (
	Version      = "0.1.0"
	Product      = "Resonate Play"
	Manufacturer = "Resonate"
)
