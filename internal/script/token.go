package script

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIdent
	tokNumber
	tokFn
	tokReturn
	tokAssign // =
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "newline"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokFn:
		return "'fn'"
	case tokReturn:
		return "'return'"
	case tokAssign:
		return "'='"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokComma:
		return "','"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  Position
}

func (t token) String() string {
	if t.text != "" {
		return fmt.Sprintf("'%s'", t.text)
	}
	return t.kind.String()
}

// tokenize splits source into tokens with 1-based line/column
// positions. '#' starts a comment running to end of line. Newlines
// and ';' are emitted as statement separators.
func tokenize(source string) ([]token, error) {
	var tokens []token
	line, col := 1, 1

	emit := func(kind tokenKind, text string, p Position) {
		tokens = append(tokens, token{kind: kind, text: text, pos: p})
	}

	i := 0
	for i < len(source) {
		c := source[i]
		start := Position{Line: line, Col: col}

		switch {
		case c == '#':
			for i < len(source) && source[i] != '\n' {
				i++
				col++
			}
		case c == '\n' || c == ';':
			emit(tokNewline, "", start)
			if c == '\n' {
				line++
				col = 1
			} else {
				col++
			}
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
			col++
		case c >= '0' && c <= '9':
			j := i
			seenDot := false
			for j < len(source) {
				d := source[j]
				if d == '.' && !seenDot {
					seenDot = true
					j++
					continue
				}
				if d < '0' || d > '9' {
					break
				}
				j++
			}
			emit(tokNumber, source[i:j], start)
			col += j - i
			i = j
		case isIdentStart(c):
			j := i
			for j < len(source) && isIdentPart(source[j]) {
				j++
			}
			word := source[i:j]
			switch word {
			case "fn":
				emit(tokFn, word, start)
			case "return":
				emit(tokReturn, word, start)
			default:
				emit(tokIdent, word, start)
			}
			col += j - i
			i = j
		default:
			var kind tokenKind
			switch c {
			case '=':
				kind = tokAssign
			case '+':
				kind = tokPlus
			case '-':
				kind = tokMinus
			case '*':
				kind = tokStar
			case '/':
				kind = tokSlash
			case '(':
				kind = tokLParen
			case ')':
				kind = tokRParen
			case '{':
				kind = tokLBrace
			case '}':
				kind = tokRBrace
			case ',':
				kind = tokComma
			default:
				return nil, compileErrorf(start, "unexpected character %q", string(c))
			}
			emit(kind, string(c), start)
			i++
			col++
		}
	}

	tokens = append(tokens, token{kind: tokEOF, pos: Position{Line: line, Col: col}})
	return tokens, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// firstNonSpace is used for error messages about empty sources.
func firstNonSpace(source string) bool {
	return strings.TrimSpace(source) != ""
}
