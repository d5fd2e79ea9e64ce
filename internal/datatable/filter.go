package datatable

import (
	"strings"

	"golang.org/x/text/cases"
)

// Option is one choice of a select filter.
type Option struct {
	Label string
	Value string
}

// FilterKind is the closed set of filter control kinds: TextFilter,
// SelectFilter and SearchSelectFilter.
// A nil Kind behaves as TextFilter.
type FilterKind interface {
	filterKind()
}

// TextFilter is a free-text box.
type TextFilter struct{}

// SelectFilter is an exclusive choice among Options plus an implicit unset.
type SelectFilter struct {
	Options []Option
}

// SearchSelectFilter is a SelectFilter whose option list can be narrowed by
// a local query typed by the user.
type SearchSelectFilter struct {
	Options []Option
}

func (TextFilter) filterKind()         {}
func (SelectFilter) filterKind()       {}
func (SearchSelectFilter) filterKind() {}

// FilterSpec declares one filter control.
type FilterSpec struct {
	ID    string
	Label string
	Kind  FilterKind
}

// Options returns the declared options of select kinds, nil otherwise.
func (f FilterSpec) Options() []Option {
	switch k := f.Kind.(type) {
	case SelectFilter:
		return k.Options
	case SearchSelectFilter:
		return k.Options
	default:
		return nil
	}
}

// OptionLabel returns the label of the option with the given value.
func (f FilterSpec) OptionLabel(value string) (string, bool) {
	for _, o := range f.Options() {
		if o.Value == value {
			return o.Label, true
		}
	}
	return "", false
}

// normalize returns the value the filter would store for v.
func (f FilterSpec) normalize(v string) string {
	switch f.Kind.(type) {
	case SelectFilter, SearchSelectFilter:
		if _, ok := f.OptionLabel(v); !ok {
			return ""
		}
	}
	return v
}

// ControlOption is an option as presented by a select control.
type ControlOption struct {
	Option
	Selected bool
	// Unset marks the implicit "no value" choice of a single select.
	Unset bool
}

// FilterControl is the display model of one filter control.
type FilterControl struct {
	Spec  FilterSpec
	Value string
	// Display is the text shown in the control: the typed value, the label
	// of the selected option, or the filter label as a placeholder.
	Display     string
	Placeholder bool
	// Options is empty for text filters. For searchable selects it is
	// already narrowed by Query.
	Options   []ControlOption
	Query     string
	NoMatches bool
}

// BuildControl renders a filter for its current value. query is the local
// option search of a searchable select and is ignored by other kinds.
func BuildControl(spec FilterSpec, value, query string) FilterControl {
	c := FilterControl{Spec: spec, Value: value}
	switch k := spec.Kind.(type) {
	case SelectFilter:
		c.Options = append(c.Options, ControlOption{
			Option: Option{Label: "(any)"},
			Unset:  true, Selected: value == "",
		})
		for _, o := range k.Options {
			c.Options = append(c.Options, ControlOption{Option: o, Selected: o.Value == value})
		}
		c.setSelectDisplay(spec, value)
	case SearchSelectFilter:
		c.Query = query
		for _, o := range MatchOptions(k.Options, query) {
			c.Options = append(c.Options, ControlOption{Option: o, Selected: o.Value == value})
		}
		c.NoMatches = len(c.Options) == 0
		c.setSelectDisplay(spec, value)
		if value == "" && query != "" {
			c.Display, c.Placeholder = query, false
		}
	default:
		c.Display = value
		if value == "" {
			c.Display, c.Placeholder = spec.Label, true
		}
	}
	return c
}

func (c *FilterControl) setSelectDisplay(spec FilterSpec, value string) {
	if label, ok := spec.OptionLabel(value); ok {
		c.Display = label
		return
	}
	c.Display, c.Placeholder = spec.Label, true
}

// MatchOptions keeps the options whose label contains query, ignoring case.
func MatchOptions(options []Option, query string) []Option {
	if query == "" {
		return options
	}
	fold := cases.Fold()
	q := fold.String(query)
	var out []Option
	for _, o := range options {
		if strings.Contains(fold.String(o.Label), q) {
			out = append(out, o)
		}
	}
	return out
}
