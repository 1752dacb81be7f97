// ABOUTME: Version information for resonate-playback
// ABOUTME: Product identity reported by the command line tools
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the product name
	Product = "Resonate Playback"

	// Manufacturer is the maker of this build
	Manufacturer = "Resonate Protocol"
)

// String returns the product and version for banners and -version output
func String() string {
	return Product + " " + Version
}
