// Package serial generates and validates PhaseGarden license serials.
//
// A serial is 12 random symbols from A-Z0-9 followed by a 4 symbol checksum,
// written as XXXX-XXXX-XXXX-XXXX. The checksum is the first four hex digits of
// MD5(body + ProductSalt), upper-cased. It catches transcription typos only:
// anyone holding the salt can mint valid serials. The algorithm must not
// change, issued serials validate offline inside the plugin.
package serial

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

const (
	// Alphabet is the 36 symbol set used for body and checksum.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// ProductSalt is bound to the product and shared with the plugin.
	ProductSalt = "PhaseGarden"

	BodyLength     = 12
	ChecksumLength = 4
	Length         = BodyLength + ChecksumLength
	groupSize      = 4
)

// largest multiple of len(Alphabet) that fits in a byte; used for unbiased sampling
const sampleLimit = 256 - 256%len(Alphabet)

// ErrInvalid is returned by Parse for input that does not validate.
var ErrInvalid = errors.New("invalid serial")

// Serial is a generated or parsed license code.
type Serial struct {
	Body     string
	Checksum string
}

// String returns the canonical dashed form.
func (s Serial) String() string {
	return Format(s.Body + s.Checksum)
}

// Codec generates and validates serials. The zero value is not usable; use NewCodec.
type Codec struct {
	random io.Reader
	salt   string
}

// Option configures a Codec.
type Option func(*Codec)

// WithRandom overrides the entropy source (tests).
func WithRandom(r io.Reader) Option {
	return func(c *Codec) {
		c.random = r
	}
}

// NewCodec returns a codec bound to ProductSalt and crypto/rand.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{random: rand.Reader, salt: ProductSalt}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate draws a fresh body and computes its checksum. Uniqueness is the
// caller's concern.
func (c *Codec) Generate() (Serial, error) {
	body, err := c.randomBody()
	if err != nil {
		return Serial{}, fmt.Errorf("generate serial body: %w", err)
	}
	return Serial{Body: body, Checksum: c.Checksum(body)}, nil
}

// Checksum returns the 4 symbol checksum for body.
func (c *Codec) Checksum(body string) string {
	sum := md5.Sum([]byte(body + c.salt))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:ChecksumLength])
}

// Validate reports whether input is a well-formed serial with a matching
// checksum. Whitespace and dashes are ignored and case is folded. It never
// panics.
func (c *Codec) Validate(input string) bool {
	_, err := c.Parse(input)
	return err == nil
}

// Parse normalizes and validates input.
func (c *Codec) Parse(input string) (Serial, error) {
	clean := normalize(input)
	if len(clean) != Length {
		return Serial{}, ErrInvalid
	}
	for i := 0; i < len(clean); i++ {
		if strings.IndexByte(Alphabet, clean[i]) < 0 {
			return Serial{}, ErrInvalid
		}
	}
	s := Serial{Body: clean[:BodyLength], Checksum: clean[BodyLength:]}
	if c.Checksum(s.Body) != s.Checksum {
		return Serial{}, ErrInvalid
	}
	return s, nil
}

func (c *Codec) randomBody() (string, error) {
	out := make([]byte, 0, BodyLength)
	buf := make([]byte, BodyLength*2)
	for len(out) < BodyLength {
		if _, err := io.ReadFull(c.random, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= sampleLimit {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == BodyLength {
				break
			}
		}
	}
	return string(out), nil
}

var defaultCodec = NewCodec()

// Generate draws a serial with the default codec.
func Generate() (Serial, error) {
	return defaultCodec.Generate()
}

// Validate checks input with the default codec.
func Validate(input string) bool {
	return defaultCodec.Validate(input)
}

// Parse normalizes and validates input with the default codec.
func Parse(input string) (Serial, error) {
	return defaultCodec.Parse(input)
}

// Checksum computes the checksum of body with the product salt.
func Checksum(body string) string {
	return defaultCodec.Checksum(body)
}

// Format inserts dashes after positions 4, 8 and 12. Existing whitespace and
// dashes are dropped first; no validation happens and short input yields
// short groups.
func Format(raw string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	groups := make([]string, 0, Length/groupSize)
	for start := 0; start < Length; start += groupSize {
		groups = append(groups, substr(clean, start, start+groupSize))
	}
	return strings.Join(groups, "-")
}

func normalize(input string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input))
}

func substr(s string, start, end int) string {
	if start >= len(s) {
		return ""
	}
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}
