package metadata

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/imgajeed76/metatable/internal/util"
)

var (
	keyPattern      = regexp.MustCompile(`^/[a-zA-Z0-9_]+$`)
	keywordsPattern = regexp.MustCompile(`^[a-zA-Z0-9, ]+$`)
)

// Field limits.
const (
	TitleMin       = 3
	TitleMax       = 50
	DescriptionMin = 10
	DescriptionMax = 250
	KeywordsMin    = 3
	KeywordsMax    = 15
)

// Validate checks every field of in and returns a *ValidationError listing
// all problems, or nil.
func Validate(in Input) error {
	var verr ValidationError

	switch {
	case in.Key == "":
		verr.add("key", "Key is required.")
	case !keyPattern.MatchString(in.Key):
		verr.add("key", "Key must start with / and only contain alphanumeric characters and underscores.")
	}

	if in.Type == "" {
		verr.add("type", "Type is required.")
	}

	checkLength(&verr, "title", "Title", in.Title, TitleMin, TitleMax)
	checkLength(&verr, "description", "Description", in.Description, DescriptionMin, DescriptionMax)

	switch {
	case in.Keywords == "":
		verr.add("keywords", "Keywords are required.")
	case !keywordsPattern.MatchString(in.Keywords):
		verr.add("keywords", "Keywords must be alphanumeric and can include commas and spaces.")
	default:
		if n := len(util.SplitList(in.Keywords)); n < KeywordsMin || n > KeywordsMax {
			verr.add("keywords", "Keywords must be at least 3 and at most 15 in number.")
		}
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	return &verr
}

func checkLength(verr *ValidationError, field, name, value string, lo, hi int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0:
		verr.add(field, name+" is required.")
	case n < lo:
		verr.add(field, fmt.Sprintf("%s must be at least %d characters long.", name, lo))
	case n > hi:
		verr.add(field, fmt.Sprintf("%s must be at most %d characters long.", name, hi))
	}
}

func (r Record) input() Input {
	return Input{Key: r.Key, Type: r.Type, Title: r.Title, Description: r.Description, Keywords: r.Keywords}
}
