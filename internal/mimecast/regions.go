package mimecast

import "strings"

// Region identifies a Mimecast data-centre deployment. The region determines
// the base API hostname for both the token endpoint and resource calls.
type Region string

// Supported regions.
const (
	RegionEU       Region = "EU"
	RegionUS       Region = "US"
	RegionDE       Region = "DE"
	RegionCA       Region = "CA"
	RegionZA       Region = "ZA"
	RegionAU       Region = "AU"
	RegionOffshore Region = "Offshore"
)

// regionBaseURLs maps each region to its API base URL. The token endpoint
// lives directly under this base; resource calls are made under /api/v2.
var regionBaseURLs = map[Region]string{
	RegionEU:       "https://eu-api.mimecast.com",
	RegionUS:       "https://us-api.mimecast.com",
	RegionDE:       "https://de-api.mimecast.com",
	RegionCA:       "https://ca-api.mimecast.com",
	RegionZA:       "https://za-api.mimecast.com",
	RegionAU:       "https://au-api.mimecast.com",
	RegionOffshore: "https://off-api.mimecast.com",
}

// Regions returns all supported region identifiers.
func Regions() []Region {
	return []Region{
		RegionEU, RegionUS, RegionDE, RegionCA, RegionZA, RegionAU, RegionOffshore,
	}
}

// ResolveRegion maps a region name to its canonical identifier and API base
// URL. Matching is case-insensitive. Unmapped names fail with
// *UnknownRegionError.
func ResolveRegion(name string) (Region, string, error) {
	for region, baseURL := range regionBaseURLs {
		if strings.EqualFold(name, string(region)) {
			return region, baseURL, nil
		}
	}
	return "", "", &UnknownRegionError{Region: name}
}
