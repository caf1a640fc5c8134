// Package view renders the payment page: the form, the decision result and
// the error panel.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/frahmantamala/paynow/internal/core/common/validation"
	"github.com/frahmantamala/paynow/internal/core/datamodel/payment"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	Title    = "PayNow"
	Subtitle = "AI-Powered Payment Decision System"

	SubmitLabel     = "Submit Payment"
	ProcessingLabel = "Processing..."
)

type FormView struct {
	CustomerID string
	Amount     string
	Currency   string
	PayeeID    string

	Currencies []string
	Loading    bool
	// SubmitDisabled is the state the button is first rendered in; the page
	// script re-evaluates it as the user types.
	SubmitDisabled bool

	MinLength int
	MaxAmount float64
}

func (f FormView) SubmitLabel() string {
	if f.Loading {
		return ProcessingLabel
	}
	return SubmitLabel
}

// Page is everything the template needs. At most one of Error and Result is
// set.
type Page struct {
	Title    string
	Subtitle string
	Form     FormView
	Loading  bool
	Error    string
	Result   *Result
}

// NewPage fills in the fixed parts of a page.
func NewPage(form FormView, loading bool, errMessage string, result *Result) Page {
	currencies := make([]string, 0, len(payment.Currencies))
	for _, c := range payment.Currencies {
		currencies = append(currencies, string(c))
	}
	form.Currencies = currencies
	form.Loading = loading
	form.MinLength = validation.TokenMinLength
	form.MaxAmount = validation.MaxAmount

	return Page{
		Title:    Title,
		Subtitle: Subtitle,
		Form:     form,
		Loading:  loading,
		Error:    errMessage,
		Result:   result,
	}
}

type Renderer struct {
	tmpl *template.Template
	loc  *time.Location
}

// NewRenderer parses the embedded templates. loc is the zone trace step
// times are displayed in; nil means time.Local.
func NewRenderer(loc *time.Location) (*Renderer, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{tmpl: tmpl, loc: loc}, nil
}

func (r *Renderer) Location() *time.Location {
	return r.loc
}

// Render writes the full page. Nothing is written to w if the template
// fails.
func (r *Renderer) Render(w io.Writer, page Page) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page.html", page); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
