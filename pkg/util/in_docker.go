package util

import "os"

// Files container runtimes drop into the root of every container
var containerMarkers = []string{"/.dockerenv", "/run/.containerenv"}

// IsRunningInDocker reports whether the process runs inside a Docker or
// Podman container.
func IsRunningInDocker() bool {
	return inContainer(containerMarkers, os.Getenv("container"))
}

func inContainer(markers []string, containerEnv string) bool {
	if containerEnv != "" {
		return true
	}

	for _, m := range markers {
		if _, err := os.Stat(m); err == nil {
			return true
		}
	}

	return false
}
