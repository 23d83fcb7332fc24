//go:build nolibopusfile

// ABOUTME: Opus input stub for builds without libopusfile
// ABOUTME: Leaves .opus files unregistered so they report an unsupported format
package decode

func registerOpus() {}
