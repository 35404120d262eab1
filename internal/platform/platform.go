package platform

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// DefaultName is the profile used when no target platform is given.
const DefaultName = "default"

// Platform describes how a finished remix is encoded for a destination.
type Platform interface {
	// GetName returns the platform name
	GetName() string

	// GetMaxDimensions returns the output frame size; zero keeps the source size
	GetMaxDimensions() (width, height int)

	// GetMaxDuration returns the longest accepted remix in seconds; zero means unlimited
	GetMaxDuration() int

	GetVideoCodec() string
	GetAudioCodec() string

	// GetPreset returns the x264 speed preset
	GetPreset() string

	// GetCRF returns the constant rate factor
	GetCRF() int

	GetFPS() int
	GetAudioBitrate() string

	// GetOutputFormat returns the container extension without the dot
	GetOutputFormat() string
}

var platforms = make(map[string]Platform)

// Register adds a platform to the registry
func Register(p Platform) {
	platforms[p.GetName()] = p
}

// Get returns a platform by name. An empty name selects the default profile.
func Get(name string) (Platform, error) {
	if name == "" {
		name = DefaultName
	}
	p, ok := platforms[name]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", name)
	}
	return p, nil
}

// GetSupportedPlatforms returns the registered names in sorted order
func GetSupportedPlatforms() []string {
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
