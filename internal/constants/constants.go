// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

// UserAgent is sent on outbound requests unless the config overrides it
const UserAgent = "tankwatch/" + Version

// DataEndpoint is appended to the configured base URL by the remote loader
const DataEndpoint = "/api/product/get-data"

// DefaultSourcePath is the snapshot the file loader reads when no path is configured
const DefaultSourcePath = "hack11.json"

// NoDataMessage is shown when a selection matches no readings
const NoDataMessage = "No data available for the selected date and time."
