package config

import "os"

const defaultAPIURL = "http://localhost:8080"

// APIURL returns the base URL for the AssetTrack API.
// It can be overridden with the ASSETTRACK_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("ASSETTRACK_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}
