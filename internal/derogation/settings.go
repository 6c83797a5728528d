// Package derogation decides whether a construction project near a municipal
// boundary may proceed. A disk buffer around the project point is measured
// against land-use zone layers and a layer of previously granted derogations,
// then an ordered rule set turns the measurements into a verdict.
package derogation

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/derogation-cli/internal/geometry"
)

// ZoneCategory pairs the technical layer name fragment of a land-use domain
// with the name shown in reports.
type ZoneCategory struct {
	Technical string `json:"technical" yaml:"technical"`
	Friendly  string `json:"friendly" yaml:"friendly"`
}

// Settings is the analysis configuration. It is built once at startup and
// copied into every component; nothing mutates it afterwards.
type Settings struct {
	ReferenceSystem   string
	Zones             []ZoneCategory
	StateLandZone     string
	MaxPrecedents     int
	PrecedentFragment string
	BufferSegments    int
	Timeout           time.Duration
}

// Default zone categories, in reporting order.
var defaultZones = []ZoneCategory{
	{Technical: "DOMAINE_COMMUNAL", Friendly: "Domaine Communal"},
	{Technical: "DOMAINE_FORESTIER", Friendly: "Domaine Forestier"},
	{Technical: "DOMIANE_PRIVE_ETAT", Friendly: "Domaine Privé État"},
	{Technical: "DOMAINE_PUBLIC", Friendly: "Domaine Public"},
	{Technical: "Derogation_central_13_avril", Friendly: "Projets Dérogés"},
}

// DefaultSettings returns the settings used when nothing is configured.
// The state land technical name keeps the spelling of the production layer.
func DefaultSettings() Settings {
	return Settings{
		ReferenceSystem:   "EPSG:26191",
		Zones:             slices.Clone(defaultZones),
		StateLandZone:     "DOMIANE_PRIVE_ETAT",
		MaxPrecedents:     4,
		PrecedentFragment: "derogation",
		BufferSegments:    geometry.DefaultSegments,
		Timeout:           60 * time.Second,
	}
}

// Validate reports the first inconsistency in s.
func (s Settings) Validate() error {
	if len(s.Zones) == 0 {
		return eris.Wrap(ErrInvalidInput, "derogation: no zone categories configured")
	}
	seen := make(map[string]bool, len(s.Zones))
	for _, z := range s.Zones {
		if strings.TrimSpace(z.Technical) == "" {
			return eris.Wrap(ErrInvalidInput, "derogation: zone category without technical name")
		}
		if seen[z.Technical] {
			return eris.Wrapf(ErrInvalidInput, "derogation: duplicate zone category %q", z.Technical)
		}
		seen[z.Technical] = true
	}
	if !seen[s.StateLandZone] {
		return eris.Wrapf(ErrInvalidInput, "derogation: state land zone %q is not a configured category", s.StateLandZone)
	}
	if s.MaxPrecedents < 0 {
		return eris.Wrapf(ErrInvalidInput, "derogation: max precedents %d is negative", s.MaxPrecedents)
	}
	if strings.TrimSpace(s.PrecedentFragment) == "" {
		return eris.Wrap(ErrInvalidInput, "derogation: empty precedent layer fragment")
	}
	if s.BufferSegments < 3 {
		return eris.Wrapf(ErrInvalidInput, "derogation: buffer segments %d below 3", s.BufferSegments)
	}
	if s.Timeout < 0 {
		return eris.Wrap(ErrInvalidInput, "derogation: negative timeout")
	}
	if _, err := s.SRID(); err != nil {
		return err
	}
	return nil
}

// SRID extracts the numeric code of an "AUTHORITY:CODE" reference system.
func (s Settings) SRID() (int, error) {
	_, code, ok := strings.Cut(s.ReferenceSystem, ":")
	if !ok {
		code = s.ReferenceSystem
	}
	srid, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil || srid <= 0 {
		return 0, eris.Wrapf(ErrInvalidInput, "derogation: bad reference system %q", s.ReferenceSystem)
	}
	return srid, nil
}

// Friendly returns the display name of a technical zone name.
func (s Settings) Friendly(technical string) string {
	for _, z := range s.Zones {
		if z.Technical == technical {
			return z.Friendly
		}
	}
	return technical
}

func (s Settings) clone() Settings {
	s.Zones = slices.Clone(s.Zones)
	return s
}
