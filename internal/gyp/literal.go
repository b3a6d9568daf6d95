package gyp

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// NormalizeLiteral rewrites the string literals of a Python literal (a .gypi
// or .gyp_env file) as YAML double-quoted scalars, so the whole document
// reads as a YAML flow collection. Escapes are decoded, raw and prefixed
// literals are handled, and adjacent literals are joined ('a' 'b' is "ab").
// Everything outside string literals is copied unchanged.
func NormalizeLiteral(src []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(src))

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '#':
			end := bytes.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			out.Write(src[i : i+end])
			i += end
		case stringStart(src, i) >= 0:
			var joined strings.Builder
			for {
				j := stringStart(src, i)
				if j < 0 {
					break
				}
				s, next, err := readString(src, i, j)
				if err != nil {
					return nil, err
				}
				joined.WriteString(s)
				i = next
				// Look past blanks and comments for another literal.
				k := skipBlanks(src, i)
				if stringStart(src, k) < 0 {
					break
				}
				i = k
			}
			out.WriteString(strconv.Quote(joined.String()))
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.Bytes(), nil
}

// stringStart returns the index of the opening quote when a string literal
// (optionally prefixed with r, u or b) begins at i, else -1.
func stringStart(src []byte, i int) int {
	if i >= len(src) {
		return -1
	}
	if i > 0 && isIdent(src[i-1]) {
		return -1
	}
	j := i
	for j < len(src) && j-i < 2 && strings.IndexByte("rRuUbB", src[j]) >= 0 {
		j++
	}
	if j < len(src) && (src[j] == '\'' || src[j] == '"') {
		return j
	}
	return -1
}

func isIdent(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func skipBlanks(src []byte, i int) int {
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
			i++
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		default:
			return i
		}
	}
	return i
}

// readString decodes the literal whose prefix starts at start and whose
// opening quote is at q. It returns the value and the index after it.
func readString(src []byte, start, q int) (string, int, error) {
	raw := bytes.ContainsAny(src[start:q], "rR")
	quote := src[q]
	delim := []byte{quote}
	if bytes.HasPrefix(src[q:], []byte{quote, quote, quote}) {
		delim = []byte{quote, quote, quote}
	}

	var b strings.Builder
	i := q + len(delim)
	for i < len(src) {
		if bytes.HasPrefix(src[i:], delim) {
			return b.String(), i + len(delim), nil
		}
		c := src[i]
		if c == '\n' && len(delim) == 1 {
			break
		}
		if c != '\\' || i+1 >= len(src) {
			b.WriteByte(c)
			i++
			continue
		}
		if raw {
			b.WriteByte(c)
			b.WriteByte(src[i+1])
			i += 2
			continue
		}
		n, err := unescape(&b, src[i:])
		if err != nil {
			return "", 0, errors.Wrapf(err, "offset %d", i)
		}
		i += n
	}
	return "", 0, errors.Errorf("unterminated string literal at offset %d", q)
}

// unescape decodes one backslash escape at the start of s and returns its
// length. Unknown escapes are kept as written.
func unescape(b *strings.Builder, s []byte) (int, error) {
	switch c := s[1]; c {
	case '\n':
		return 2, nil
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := 1
		for n < 3 && 1+n < len(s) && s[1+n] >= '0' && s[1+n] <= '7' {
			n++
		}
		v, _ := strconv.ParseUint(string(s[1:1+n]), 8, 32)
		b.WriteRune(rune(v))
		return 1 + n, nil
	case 'x', 'u', 'U':
		width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
		if len(s) < 2+width {
			return 0, errors.Errorf("truncated \\%c escape", c)
		}
		r, err := strconv.ParseUint(string(s[2:2+width]), 16, 32)
		if err != nil {
			return 0, errors.Errorf("invalid \\%c escape %q", c, s[2:2+width])
		}
		b.WriteRune(rune(r))
		return 2 + width, nil
	default:
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return 2, nil
}
