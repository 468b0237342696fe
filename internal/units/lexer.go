package units

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int // Byte offset in the source
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lex(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	// Byte offsets are tracked separately so positions can slice src.
	offset := 0
	for i := 0; i < len(runes); {
		r := runes[i]
		start := offset
		switch {
		case unicode.IsSpace(r):
			i++
			offset += len(string(r))
			continue
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			// Exponent part: 1e3, 2.5E-4
			if j < len(runes) && (runes[j] == 'e' || runes[j] == 'E') {
				k := j + 1
				if k < len(runes) && (runes[k] == '+' || runes[k] == '-') {
					k++
				}
				if k < len(runes) && unicode.IsDigit(runes[k]) {
					for k < len(runes) && unicode.IsDigit(runes[k]) {
						k++
					}
					j = k
				}
			}
			text := string(runes[i:j])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q", ErrSyntax, text)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: v, pos: start})
			i = j
			offset += len(text)
			continue
		case isIdentStart(r):
			j := i
			for j < len(runes) && isIdentPart(runes[j]) {
				j++
			}
			text := string(runes[i:j])
			toks = append(toks, token{kind: tokIdent, text: text, pos: start})
			i = j
			offset += len(text)
			continue
		case strings.ContainsRune("+-*/^", r):
			toks = append(toks, token{kind: tokOp, text: string(r), pos: start})
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: start})
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: start})
		case r == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: start})
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrSyntax, r)
		}
		i++
		offset += len(string(r))
	}
	toks = append(toks, token{kind: tokEOF, pos: offset})
	return toks, nil
}
