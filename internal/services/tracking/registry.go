package tracking

import (
	"regexp"
	"strings"
)

// Carrier is one registry row: canonical code, pretty name, aliases,
// detection patterns, and how lookups for it may be served.
type Carrier struct {
	Code      string
	Name      string
	Aliases   []string
	Patterns  []*regexp.Regexp
	DirectAPI string // key of a carrier-specific adapter, "" when none exists
	// UseFallback marks the carrier as eligible for the universal
	// aggregator tier.
	UseFallback bool
}

// Registry is built once at startup and read-only afterwards; hot reload
// would replace the whole value, never mutate rows in place.
type Registry struct {
	carriers []*Carrier
	byCode   map[string]*Carrier
}

// DefaultDetection is returned when no pattern matches a number.
var DefaultDetection = []string{"colissimo", "chronopost", "mondial_relay"}

func NewRegistry(carriers []*Carrier) *Registry {
	byCode := make(map[string]*Carrier, len(carriers))
	for _, c := range carriers {
		byCode[c.Code] = c
		for _, a := range c.Aliases {
			byCode[NormalizeCode(a)] = c
		}
	}
	return &Registry{carriers: carriers, byCode: byCode}
}

func DefaultRegistry() *Registry {
	return NewRegistry([]*Carrier{
		{
			Code:    "colissimo",
			Name:    "Colissimo",
			Aliases: []string{"laposte", "la_poste"},
			Patterns: compile(
				`^[0-9][A-Z][0-9]{11}$`,
				`^[A-Z]{2}[0-9]{9}FR$`,
			),
			DirectAPI:   "laposte",
			UseFallback: true,
		},
		{
			Code:        "chronopost",
			Name:        "Chronopost",
			Aliases:     []string{"chrono"},
			Patterns:    compile(`^[A-Z]{2}[0-9]{9}[A-Z]{2}$`),
			UseFallback: true,
		},
		{
			Code:    "mondial_relay",
			Name:    "Mondial Relay",
			Aliases: []string{"mondialrelay"},
			Patterns: compile(
				`^[0-9]{8}$`,
				`^[0-9]{10}$`,
				`^[0-9]{12}$`,
			),
			UseFallback: true,
		},
		{
			Code:        "colis_prive",
			Name:        "Colis Privé",
			Aliases:     []string{"colisprive"},
			Patterns:    compile(`^CP[0-9]{8,12}$`),
			UseFallback: true,
		},
		{
			Code:        "dpd",
			Name:        "DPD",
			Patterns:    compile(`^[0-9]{14}$`),
			UseFallback: true,
		},
		{
			Code:        "ups",
			Name:        "UPS",
			Patterns:    compile(`^1Z[0-9A-Z]{16}$`),
			UseFallback: true,
		},
		{
			Code:    "dhl",
			Name:    "DHL",
			Patterns: compile(
				`^[0-9]{10}$`,
				`^JJD[0-9]{16,18}$`,
			),
			UseFallback: true,
		},
		{
			Code:    "fedex",
			Name:    "FedEx",
			Patterns: compile(
				`^[0-9]{12}$`,
				`^[0-9]{15}$`,
			),
			UseFallback: true,
		},
		{
			Code:        "gls",
			Name:        "GLS",
			Patterns:    compile(`^[0-9]{11}$`),
			UseFallback: true,
		},
		{
			Code:        "usps",
			Name:        "USPS",
			Patterns:    compile(`^9[0-9]{21}$`),
			UseFallback: true,
		},
	})
}

// NormalizeCode lowercases and folds spaces/hyphens to underscores, so
// "Mondial-Relay" and "mondial relay" resolve to the same row.
func NormalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "-", "_")
	code = strings.ReplaceAll(code, " ", "_")
	return code
}

// Resolve returns the registry row for a code or alias, nil when unknown.
func (r *Registry) Resolve(code string) *Carrier {
	return r.byCode[NormalizeCode(code)]
}

// Detect unions every row whose pattern matches the number; when nothing
// matches it returns the fixed default set.
func (r *Registry) Detect(trackNumber string) []string {
	n := strings.ToUpper(strings.TrimSpace(trackNumber))
	var out []string
	for _, c := range r.carriers {
		for _, p := range c.Patterns {
			if p.MatchString(n) {
				out = append(out, c.Code)
				break
			}
		}
	}
	if len(out) == 0 {
		out = make([]string, len(DefaultDetection))
		copy(out, DefaultDetection)
	}
	return out
}

// Carriers returns the rows in registration order.
func (r *Registry) Carriers() []*Carrier {
	return r.carriers
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
