package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/piescript-lang/piescript/internal/lexer"
	"github.com/piescript-lang/piescript/internal/token"
)

func kinds(tokens []token.Token) []token.Kind {
	kinds := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	return kinds
}

func TestTokenizeKeywordsAndIdentifiers(t *testing.T) {
	tokens := lexer.New("function main this local").Tokenize()
	require.Equal(t, []token.Kind{
		token.KindFunction, token.KindIdentifier, token.KindThis, token.KindLocal, token.KindEOF,
	}, kinds(tokens))
	require.Equal(t, "main", tokens[1].Text)
}

func TestTokenizeIntegerAndFloat(t *testing.T) {
	tokens := lexer.New("42 3.5").Tokenize()
	require.Equal(t, token.KindInteger, tokens[0].Kind)
	require.Equal(t, int64(42), tokens[0].Integer)
	require.Equal(t, token.KindFloat, tokens[1].Kind)
	require.Equal(t, 3.5, tokens[1].Float)
}

// A dot only promotes a number to a float when it is immediately
// followed by another digit; otherwise it lexes as a separate Dot
// token, so that "42.string" reads as a primitive property access.
func TestDotFollowedByNonDigitIsNotFloat(t *testing.T) {
	tokens := lexer.New("42.string").Tokenize()
	require.Equal(t, []token.Kind{
		token.KindInteger, token.KindDot, token.KindIdentifier, token.KindEOF,
	}, kinds(tokens))
	require.Equal(t, int64(42), tokens[0].Integer)
	require.Equal(t, "string", tokens[2].Text)
}

func TestTokenizeStringWithEscapes(t *testing.T) {
	tokens := lexer.New(`"a\nb\t\"c\""`).Tokenize()
	require.Equal(t, token.KindString, tokens[0].Kind)
	require.Equal(t, "a\nb\t\"c\"", tokens[0].Text)
}

func TestUnterminatedStringIsInvalid(t *testing.T) {
	tokens := lexer.New(`"unterminated`).Tokenize()
	require.Equal(t, token.KindInvalid, tokens[0].Kind)
}

func TestLineCommentIsSkipped(t *testing.T) {
	tokens := lexer.New("1 # a comment\n2").Tokenize()
	require.Equal(t, []token.Kind{token.KindInteger, token.KindInteger, token.KindEOF}, kinds(tokens))
	require.Equal(t, 2, tokens[1].Position.Line)
}

func TestTwoCharSymbolsPreferredOverOneChar(t *testing.T) {
	tokens := lexer.New("== != <= >= && ||").Tokenize()
	require.Equal(t, []token.Kind{
		token.KindEqual, token.KindNotEqual, token.KindLessEqual,
		token.KindGreaterEqual, token.KindAnd, token.KindOr, token.KindEOF,
	}, kinds(tokens))
}

func TestUnexpectedCharacterIsInvalid(t *testing.T) {
	tokens := lexer.New("@").Tokenize()
	require.Equal(t, token.KindInvalid, tokens[0].Kind)
	require.Contains(t, tokens[0].Message, "unexpected character")
}

func TestEmptyInputYieldsOnlyEOF(t *testing.T) {
	tokens := lexer.New("").Tokenize()
	require.Equal(t, []token.Kind{token.KindEOF}, kinds(tokens))
}
