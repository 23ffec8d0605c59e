// Package scanner implements the first phase of the compiler pipeline: it
// turns Aozora Bunko source text into a flat stream of Tokens, classifying
// script runs and recognising the handful of punctuation forms (ruby
// glosses, the ｜ base marker, commands, repetition glyphs) that later
// phases depend on.
package scanner

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aozora-toolkit/compiler/internal/span"
)

// UnclosedCommandError reports a "［＃" that was never closed by a "］"
// before whitespace or end of input was reached.
type UnclosedCommandError struct {
	Span span.Span
}

func (e *UnclosedCommandError) Error() string {
	return fmt.Sprintf("unclosed command at %d:%d", e.Span.Start, e.Span.End)
}

// Scan lexes text into a Token stream. The only error it returns is
// *UnclosedCommandError; a ruby gloss left open at end of input is not an
// error, it simply runs to the end of the source.
func Scan(text string) ([]Token, error) {
	chars := []rune(text)
	n := len(chars)
	var tokens []Token
	pos := 0

	for pos < n {
		c := chars[pos]

		switch {
		case c == '《':
			start := pos
			pos++
			var buf strings.Builder
			for pos < n && chars[pos] != '》' {
				buf.WriteRune(chars[pos])
				pos++
			}
			if pos < n { // closing 》 present
				pos++ // include it in the span
			}
			tokens = append(tokens, Token{
				Kind:    RubyGloss,
				Content: buf.String(),
				Span:    span.New(start, pos),
			})

		case c == '｜':
			tokens = append(tokens, Token{Kind: RubyBase, Span: span.New(pos, pos+1)})
			pos++

		case c == '\n':
			tokens = append(tokens, Token{Kind: Newline, Span: span.New(pos, pos+1)})
			pos++

		case c == '／' && pos+2 < n && chars[pos+1] == '″' && chars[pos+2] == '＼':
			tokens = append(tokens, Token{Kind: VoicedIter, Span: span.New(pos, pos+3)})
			pos += 3

		case c == '／' && pos+1 < n && chars[pos+1] == '＼':
			tokens = append(tokens, Token{Kind: Iter, Span: span.New(pos, pos+2)})
			pos += 2

		case c == '［' && pos+1 < n && chars[pos+1] == '＃':
			start := pos
			pos += 2
			var buf strings.Builder
			for {
				if pos >= n || unicode.IsSpace(chars[pos]) {
					return nil, &UnclosedCommandError{Span: span.New(start, pos)}
				}
				if chars[pos] == '］' {
					pos++ // include closing delimiter in the span
					break
				}
				buf.WriteRune(chars[pos])
				pos++
			}
			tokens = append(tokens, Token{
				Kind:    Command,
				Content: buf.String(),
				Span:    span.New(start, pos),
			})

		case classifyHiragana(c):
			start := pos
			pos++
			for pos < n && classifyHiragana(chars[pos]) {
				pos++
			}
			tokens = append(tokens, textToken(chars, start, pos, Hiragana))

		case classifyKatakana(c):
			start := pos
			pos++
			for pos < n && classifyKatakana(chars[pos]) {
				pos++
			}
			tokens = append(tokens, textToken(chars, start, pos, Katakana))

		case classifyKanji(c):
			start := pos
			pos++
			for pos < n && classifyKanji(chars[pos]) {
				pos++
			}
			tokens = append(tokens, textToken(chars, start, pos, Kanji))

		default:
			start := pos
			pos++
			for pos < n && classifyOther(chars[pos]) {
				pos++
			}
			tokens = append(tokens, textToken(chars, start, pos, Other))
		}
	}

	return tokens, nil
}

func textToken(chars []rune, start, end int, kind TextKind) Token {
	return Token{
		Kind:     Text,
		Content:  string(chars[start:end]),
		TextKind: kind,
		Span:     span.New(start, end),
	}
}
