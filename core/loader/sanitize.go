package loader

import (
	"fmt"
	"io"

	"golang.org/x/text/transform"
)

// QuoteMode selects how double quotes in the raw extract are treated.
type QuoteMode string

const (
	// QuoteStrip deletes every double quote before tokenizing, so a stray
	// quote can never swallow the lines after it. Fields that rely on
	// quoting to embed a tab are split and reported as malformed.
	QuoteStrip QuoteMode = "strip"
	// QuotePreserve keeps CSV quoting. A quoted field that runs past the
	// end of its line skips every line it covers.
	QuotePreserve QuoteMode = "preserve"
)

// ParseQuoteMode validates a configured quote mode. Empty means strip.
func ParseQuoteMode(s string) (QuoteMode, error) {
	switch QuoteMode(s) {
	case "", QuoteStrip:
		return QuoteStrip, nil
	case QuotePreserve:
		return QuotePreserve, nil
	}
	return "", fmt.Errorf("unknown quote mode %q", s)
}

// byteFilter drops single bytes and copies everything else untouched, so
// input in a legacy 8-bit encoding passes through byte for byte.
type byteFilter struct {
	transform.NopResetter
	drop [256]bool
}

func (f *byteFilter) Transform(dst, src []byte, _ bool) (nDst, nSrc int, err error) {
	for ; nSrc < len(src); nSrc++ {
		c := src[nSrc]
		if f.drop[c] {
			continue
		}
		if nDst == len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = c
		nDst++
	}
	return nDst, nSrc, nil
}

// sanitize wraps r so that NUL bytes, and quotes in strip mode, never
// reach the tokenizer.
func sanitize(r io.Reader, mode QuoteMode) io.Reader {
	f := &byteFilter{}
	f.drop[0] = true
	if mode != QuotePreserve {
		f.drop['"'] = true
	}
	return transform.NewReader(r, f)
}
