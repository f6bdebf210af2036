package main

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"flipbook/internal/book"
)

// resolveFragment maps a URL fragment to a page index.
//
// Accepted forms (leading '#' optional):
//
//	page-12   1-based page number
//	12        1-based page number
//	drawings  section name, matched case-insensitively; spaces and hyphens are interchangeable
//
// ok is false for an empty fragment. Pages past the end are left for the
// engine to clamp.
func resolveFragment(fragment string, sections []book.Section) (page int, ok bool, err error) {
	frag := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(fragment), "#"))
	if frag == "" {
		return 0, false, nil
	}

	num := frag
	if len(num) > len("page-") && strings.EqualFold(num[:len("page-")], "page-") {
		num = num[len("page-"):]
	}
	if n, convErr := strconv.Atoi(num); convErr == nil {
		if n < 1 {
			return 0, false, fmt.Errorf("fragment %q: page numbers start at 1", fragment)
		}
		return n - 1, true, nil
	}

	fold := cases.Fold()
	want := sectionKey(fold, frag)
	for _, s := range sections {
		if sectionKey(fold, s.Name) == want {
			return s.StartPage, true, nil
		}
	}
	return 0, false, fmt.Errorf("fragment %q: no page or section by that name", fragment)
}

func sectionKey(fold cases.Caser, name string) string {
	key := fold.String(strings.TrimSpace(name))
	return strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "-")
}
