// Package core provides the canonical expense types and the field-level
// parsers used while ingesting export files.
//
// This file contains the locale-tolerant number parser. Exports written with
// a Swedish locale use "." or spaces as thousands separators and "," as the
// decimal mark; English exports use a plain "." decimal.
package core

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseNumber converts a raw numeric field to a float.
//
// It never fails: blank or unparsable input yields 0. All whitespace is
// removed, a "." followed by exactly three digits and then a non-digit (or
// the end of input) is treated as a thousands separator and dropped, and the
// first remaining "," becomes the decimal point. The longest leading numeric
// prefix is parsed and any trailing text is ignored.
//
// Examples:
//
//	ParseNumber("1.234,56") -> 1234.56
//	ParseNumber("12,5")     -> 12.5
//	ParseNumber("1 000")    -> 1000
//	ParseNumber("250 kr")   -> 250
//	ParseNumber("")         -> 0
func ParseNumber(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = stripThousandsDots(s)
	s = strings.Replace(s, ",", ".", 1)

	d, err := decimal.NewFromString(numericPrefix(s))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

var numberPrefix = regexp.MustCompile(`^([+-]?)(\d*)(?:\.(\d*))?([eE][+-]?\d+)?`)

// numericPrefix returns the leading number of s in a form decimal accepts,
// or "" when s does not start with one.
func numericPrefix(s string) string {
	m := numberPrefix.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	sign, whole, frac, exp := m[1], m[2], m[3], m[4]
	if whole == "" && frac == "" {
		return ""
	}
	if whole == "" {
		whole = "0"
	}
	out := sign + whole
	if frac != "" {
		out += "." + frac
	}
	return out + exp
}

// stripThousandsDots removes every "." that precedes a run of exactly three
// digits followed by a non-digit or the end of the string.
func stripThousandsDots(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '.' && isThousandsGroup(s, i+1) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isThousandsGroup(s string, start int) bool {
	if start+3 > len(s) {
		return false
	}
	for j := start; j < start+3; j++ {
		if !isDigit(s[j]) {
			return false
		}
	}
	return start+3 == len(s) || !isDigit(s[start+3])
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
