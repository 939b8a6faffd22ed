package lexparse

// tokenKind enumerates the lexical categories of the expression grammar.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokPipe // rational literal separator "a|b"
	tokLParen
	tokRParen
	tokTilde // inverse-function prefix "~name"
	tokUnderscore
)

type token struct {
	kind       tokenKind
	text       string
	num        float64 // valid when kind == tokNumber
	impliedExp int     // nonzero when kind == tokIdent and a trailing digit 2-9 was split off as an exponent
	offset     int     // byte offset of the token's first byte
}
