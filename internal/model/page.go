package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPage   = errors.New("unknown page")
	ErrUnknownFormat = errors.New("unknown stl format")
)

// PageID names one of the two pages of the UI.
type PageID string

const (
	PageGenerate PageID = "generate"
	PageRefine   PageID = "refine"
)

// Pages lists the pages in sidebar order.
var Pages = []PageID{PageGenerate, PageRefine}

func ParsePageID(raw string) (PageID, error) {
	switch p := PageID(strings.ToLower(strings.TrimSpace(raw))); p {
	case PageGenerate, PageRefine:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPage, raw)
	}
}

func (p PageID) Title() string {
	switch p {
	case PageRefine:
		return "Refine CAD Model"
	default:
		return "Generate CAD Models in .STL Format"
	}
}

func (p PageID) ActionLabel() string {
	if p == PageRefine {
		return "Refine Model"
	}
	return "Generate Model"
}

func (p PageID) InputLabel() string {
	if p == PageRefine {
		return "Describe how the model should change:"
	}
	return "Describe the CAD model you need:"
}

// Format selects which STL encodings a generation writes.
type Format string

const (
	FormatBinary Format = "binary"
	FormatASCII  Format = "ascii"
	FormatBoth   Format = "both"
)

var Formats = []Format{FormatBinary, FormatASCII, FormatBoth}

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatBinary, FormatASCII, FormatBoth:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

func (f Format) Label() string {
	switch f {
	case FormatASCII:
		return "Human-readable (ASCII)"
	case FormatBoth:
		return "Both"
	default:
		return "Binary"
	}
}

func (f Format) WantsBinary() bool { return f == FormatBinary || f == FormatBoth }
func (f Format) WantsASCII() bool  { return f == FormatASCII || f == FormatBoth }
