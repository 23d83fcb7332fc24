// ABOUTME: Output backend selection by name
// ABOUTME: Maps CLI backend names to device constructors
package output

import (
	"fmt"
	"sort"
	"strings"
)

var backends = map[string]func() Device{
	"oto":       func() Device { return NewOto() },
	"malgo":     func() Device { return NewMalgo() },
	"portaudio": func() Device { return NewPortAudio() },
	"null":      func() Device { return NewVirtual() },
}

// Backends returns the selectable backend names
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns a new device for the named backend
func Select(name string) (Device, error) {
	newDevice, ok := backends[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown output backend %q (supported: %s)", name, strings.Join(Backends(), ", "))
	}
	return newDevice(), nil
}
