package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipbook/internal/book"
)

func TestResolveFragment(t *testing.T) {
	sections := []book.Section{
		{Name: "Early Drawings", StartPage: 3},
		{Name: "Prints", StartPage: 7},
	}

	tests := []struct {
		in   string
		page int
		ok   bool
	}{
		{"", 0, false},
		{"#", 0, false},
		{"#page-12", 11, true},
		{"page-1", 0, true},
		{"#PAGE-3", 2, true},
		{"#12", 11, true},
		{"#prints", 7, true},
		{"#early-drawings", 3, true},
		{"#EARLY_DRAWINGS", 3, true},
		{"#page-500", 499, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			page, ok, err := resolveFragment(tt.in, sections)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.page, page)
		})
	}
}

func TestResolveFragment_Errors(t *testing.T) {
	_, ok, err := resolveFragment("#page-0", nil)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "start at 1")

	_, ok, err = resolveFragment("#colophon", []book.Section{{Name: "Prints", StartPage: 2}})
	assert.False(t, ok)
	assert.ErrorContains(t, err, "no page or section")
}
