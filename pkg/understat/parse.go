package understat

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var teamsDataPattern = regexp.MustCompile(`(?s)var\s+teamsData\s*=\s*JSON\.parse\(\s*'((?:[^'\\]|\\.)*)'\s*\)`)

// ParseTeamsData finds the teamsData script on a league page and decodes it
func ParseTeamsData(html []byte) (TeamsData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}

	var literal string
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if m := teamsDataPattern.FindStringSubmatch(s.Text()); m != nil {
			literal = m[1]
			return false
		}
		return true
	})
	if literal == "" {
		return nil, fmt.Errorf("could not find teamsData script")
	}

	raw, err := DecodeJSString(literal)
	if err != nil {
		return nil, err
	}
	return decodeTeamsData(raw)
}

// DecodeJSString undoes the escaping inside a single quoted JavaScript string
// literal. \xHH escapes are raw bytes so escaped UTF-8 sequences survive.
func DecodeJSString(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		if i+1 >= len(s) {
			return nil, fmt.Errorf("dangling escape at end of string")
		}
		i++
		switch e := s[i]; e {
		case 'x':
			if i+2 >= len(s) {
				return nil, fmt.Errorf("short \\x escape at offset %d", i-1)
			}
			b, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("bad \\x escape at offset %d: %w", i-1, err)
			}
			out = append(out, byte(b))
			i += 2
		case 'u':
			if i+4 >= len(s) {
				return nil, fmt.Errorf("short \\u escape at offset %d", i-1)
			}
			r, err := strconv.ParseUint(s[i+1:i+5], 16, 16)
			if err != nil {
				return nil, fmt.Errorf("bad \\u escape at offset %d: %w", i-1, err)
			}
			i += 4
			c := rune(r)
			if utf16.IsSurrogate(c) && i+6 < len(s) && s[i+1] == '\\' && s[i+2] == 'u' {
				if lo, err := strconv.ParseUint(s[i+3:i+7], 16, 16); err == nil {
					if pair := utf16.DecodeRune(c, rune(lo)); pair != utf8.RuneError {
						c = pair
						i += 6
					}
				}
			}
			out = utf8.AppendRune(out, c)
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		default:
			// \' \" \\ \/ and anything unknown stand for the character itself
			out = append(out, e)
		}
	}
	return out, nil
}
