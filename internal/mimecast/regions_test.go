package mimecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRegion_AllRegionsMapped(t *testing.T) {
	seen := map[string]Region{}
	for _, region := range Regions() {
		resolved, baseURL, err := ResolveRegion(string(region))
		require.NoError(t, err)
		assert.Equal(t, region, resolved)
		assert.NotEmpty(t, baseURL)

		// Base URLs must be distinct across regions.
		if prev, ok := seen[baseURL]; ok {
			t.Fatalf("regions %s and %s share base URL %s", prev, region, baseURL)
		}
		seen[baseURL] = region
	}
	assert.Len(t, seen, 7)
}

func TestResolveRegion_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"eu", "EU", "Eu", "offshore", "OFFSHORE"} {
		_, baseURL, err := ResolveRegion(name)
		require.NoError(t, err, "region %q should resolve", name)
		assert.NotEmpty(t, baseURL)
	}
}

func TestResolveRegion_Unknown(t *testing.T) {
	for _, name := range []string{"", "XX", "Europe", "us-east-1"} {
		_, _, err := ResolveRegion(name)

		var unknownErr *UnknownRegionError
		require.ErrorAs(t, err, &unknownErr, "region %q", name)
		assert.Equal(t, name, unknownErr.Region)
	}
}
