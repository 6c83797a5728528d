package report

import (
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/derogation-cli/internal/derogation"
)

// labels holds the fixed strings of a document in one language.
type labels struct {
	Title     string
	Point     string
	Radius    string
	System    string
	Layer     string
	Area      string
	Impact    string
	Status    string
	Nearby    string
	NoLayer   string
	Decision  string
	Statuses  map[derogation.Status]string
	MaxFormat string
}

var frenchLabels = labels{
	Title:     "Analyse de dérogation",
	Point:     "Point",
	Radius:    "Rayon (m)",
	System:    "Système de référence",
	Layer:     "Couche",
	Area:      "Surface (m²)",
	Impact:    "Impact (%)",
	Status:    "Statut",
	Nearby:    "Dérogations à proximité",
	NoLayer:   "couche introuvable",
	Decision:  "Décision",
	MaxFormat: "%d (maximum %d)",
	Statuses: map[derogation.Status]string{
		derogation.StatusOK:       "OK",
		derogation.StatusImpact:   "IMPACT",
		derogation.StatusNotFound: "Non trouvé",
	},
}

var englishLabels = labels{
	Title:     "Derogation analysis",
	Point:     "Point",
	Radius:    "Radius (m)",
	System:    "Reference system",
	Layer:     "Layer",
	Area:      "Area (m²)",
	Impact:    "Impact (%)",
	Status:    "Status",
	Nearby:    "Nearby derogations",
	NoLayer:   "layer not found",
	Decision:  "Decision",
	MaxFormat: "%d (maximum %d)",
	Statuses: map[derogation.Status]string{
		derogation.StatusOK:       "OK",
		derogation.StatusImpact:   "IMPACT",
		derogation.StatusNotFound: "Not found",
	},
}

// localize returns the number printer and labels for a BCP 47 locale.
// Unknown locales fall back to French.
func localize(locale string) (*message.Printer, labels) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.French
	}
	base, _ := tag.Base()
	if base.String() == "en" {
		return message.NewPrinter(tag), englishLabels
	}
	return message.NewPrinter(tag), frenchLabels
}

func (l labels) status(s derogation.Status) string {
	if v, ok := l.Statuses[s]; ok {
		return v
	}
	return string(s)
}

// WriteText prints a human-readable summary of r.
func WriteText(w io.Writer, r *derogation.Report, locale string) error {
	p, l := localize(locale)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = p.Fprintf(tw, "%s\t%s\n", l.Title, r.RunID)
	_, _ = p.Fprintf(tw, "%s:\t%.2f, %.2f\n", l.Point, r.Point.X, r.Point.Y)
	_, _ = p.Fprintf(tw, "%s:\t%.2f\n", l.Radius, r.Radius)
	_, _ = p.Fprintf(tw, "%s:\t%s\n\n", l.System, r.ReferenceSystem)

	_, _ = p.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Layer, l.Area, l.Impact, l.Status)
	for _, res := range r.Results {
		marker := ""
		if res.Impacted() {
			marker = " *"
		}
		_, _ = p.Fprintf(tw, "%s\t%.2f\t%.2f%s\t%s\n", res.Name, res.Area, res.Percentage, marker, l.status(res.Status))
	}
	_, _ = p.Fprintf(tw, "\n")

	if r.PrecedentLayerFound() {
		_, _ = p.Fprintf(tw, "%s:\t"+l.MaxFormat+"\n", l.Nearby, r.Nearby, r.MaxPrecedents)
	} else {
		_, _ = p.Fprintf(tw, "%s:\t%s\n", l.Nearby, l.NoLayer)
	}
	_, _ = p.Fprintf(tw, "%s:\t%s\n", l.Decision, r.Verdict.Justification)

	return eris.Wrap(tw.Flush(), "report: write text")
}
