// Package mains detects the local electrical mains frequency from the
// system timezone. Cassette decks with synchronous capstan motors spin
// at a speed tied to the supply frequency, so a deck built for 60Hz
// runs noticeably flat on a 50Hz supply and vice versa.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// fallbackHz is used when detection fails. 50Hz covers most of the
// world's grids.
const fallbackHz = 50

// Info describes the detected local mains supply.
type Info struct {
	FrequencyHz int
	Timezone    string // IANA timezone the detection started from, if known
	Country     string // resolved country, if known
}

// Detect resolves the runtime timezone to a mains frequency.
func Detect() Info {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Info{FrequencyHz: fallbackHz}
	}
	return ForTimezone(timezone)
}

// ForTimezone returns the mains supply for a given IANA timezone.
// UTC, GMT and the Etc/ zones carry no country association and fall
// back to 50Hz.
func ForTimezone(timezone string) Info {
	info := Info{FrequencyHz: fallbackHz, Timezone: timezone}
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return info
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return info
	}
	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return info
	}

	info.Country = country
	info.FrequencyHz = frequencyForCountry(country)
	return info
}

// SpeedRatio is the factor a synchronous capstan's speed changes by
// when a deck designed for designHz runs on a localHz supply. Motor
// speed tracks the supply frequency directly, so the ratio is just
// local over design. Unknown frequencies leave the speed untouched.
func SpeedRatio(designHz, localHz int) float64 {
	if designHz <= 0 || localHz <= 0 {
		return 1.0
	}
	return float64(localHz) / float64(designHz)
}

func frequencyForCountry(country string) int {
	// Japan's grid is split 50/60Hz by region with no timezone
	// distinction; the 50Hz east has the larger population.
	if country == "Japan" {
		return fallbackHz
	}
	if hz60Countries[country] {
		return 60
	}
	return fallbackHz
}

// hz60Countries lists countries on 60Hz mains; everywhere else is
// treated as 50Hz.
// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var hz60Countries = map[string]bool{
	// Americas
	"United States":       true,
	"Canada":              true,
	"Mexico":              true,
	"Belize":              true,
	"Costa Rica":          true,
	"El Salvador":         true,
	"Guatemala":           true,
	"Honduras":            true,
	"Nicaragua":           true,
	"Panama":              true,
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,

	// South America is mostly 50Hz; these run 60Hz (Brazil has both,
	// with 60Hz predominant).
	"Brazil":    true,
	"Colombia":  true,
	"Ecuador":   true,
	"Guyana":    true,
	"Peru":      true,
	"Suriname":  true,
	"Venezuela": true,

	// Asia
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
