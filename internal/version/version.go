// ABOUTME: Version and product identification
// ABOUTME: Reported in logs and the CLI -version flag
package version

const (
	// Version is the lanprobe release
	Version = "0.1.0"
	// Product is the product name
	Product = "lanprobe"
	// Manufacturer identifies the publisher
	Manufacturer = "Resonate"
)
