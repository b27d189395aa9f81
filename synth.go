package mib2dev

import (
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// experimentalOID is the prefix of generated OBJECT IDENTIFIER values
// (iso.org.dod.internet.experimental).
var experimentalOID = OID{1, 3, 6, 1, 3}

// Synthesizer generates random values shaped by a syntax and runs them
// through the accept, override and validate loop.
type Synthesizer struct {
	rand      *rand.Rand
	pool      []string
	intLo     int64
	intHi     int64
	validator Validator
	decider   Decider
}

// NewSynthesizer returns a Synthesizer using the string pool, Integer32 range
// and seed of cfg. A zero seed picks a random one.
func NewSynthesizer(cfg *Config, validator Validator, decider Decider) (*Synthesizer, error) {
	lo, hi, err := cfg.Integer32Bounds()
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Synthesizer{
		rand:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		pool:      cfg.StringPool,
		intLo:     lo,
		intHi:     hi,
		validator: validator,
		decider:   decider,
	}, nil
}

// Generate picks a random candidate for syn. The candidate is not validated.
func (s *Synthesizer) Generate(syn *Syntax) Value {
	base := BaseTypeUnknown
	if syn != nil {
		base = syn.Base
	}

	switch base {
	case BaseTypeIpAddress:
		b := make([]byte, 4)
		for i := range b {
			b[i] = byte(1 + s.rand.IntN(255))
		}
		return OctetsValue(base, b)

	case BaseTypeCounter32, BaseTypeGauge32, BaseTypeTimeTicks, BaseTypeUnsigned32:
		return UnsignedValue(base, uint64(s.rand.Uint32()))

	case BaseTypeInteger32:
		span := uint64(s.intHi - s.intLo)
		return IntegerValue(s.intLo + int64(s.rand.Uint64N(span)))

	case BaseTypeCounter64:
		return UnsignedValue(base, s.rand.Uint64())

	case BaseTypeOctetString, BaseTypeOpaque:
		return OctetsValue(base, []byte(s.words()))

	case BaseTypeObjectIdentifier:
		oid := experimentalOID.Append()
		for n := s.rand.IntN(10); n > 0; n-- {
			oid = append(oid, uint32(s.rand.IntN(256)))
		}
		return OIDValue(oid)

	case BaseTypeBits:
		b := make([]byte, s.rand.IntN(9))
		for i := range b {
			b[i] = byte(s.rand.IntN(256))
		}
		return OctetsValue(base, b)

	default:
		return Value{Base: base, Text: "?"}
	}
}

// words returns pool[a:b] joined by spaces for two independent draws a and
// b. The result is empty when a >= b.
func (s *Synthesizer) words() string {
	if len(s.pool) == 0 {
		return ""
	}
	a, b := s.rand.IntN(len(s.pool)), s.rand.IntN(len(s.pool))
	if a >= b {
		return ""
	}
	return strings.Join(s.pool[a:b], " ")
}

// Synthesize returns a value for syn that the validator accepts.
//
// In automatic mode a generated value that validates is returned straight
// away. Otherwise, or when validation fails, the operator reviews the
// candidate: an empty answer keeps it, "0x..." is hex ("0x0x..." is the
// literal text "0x..."), anything else replaces it. Every answer is
// validated before it is returned.
func (s *Synthesizer) Synthesize(syn *Syntax, hint string) (Value, error) {
	var candidate any = s.Generate(syn)
	validate := s.decider.Automatic()
	notice := ""

	for {
		if validate {
			v, err := s.validator.Validate(syn, candidate)
			if err == nil {
				return v, nil
			}
			notice = fmt.Sprintf("*** Inconsistent value: %v\n*** See constraints and suggest a better one for:\n", err)
		}

		line, err := s.decider.Review(notice+hint, showCandidate(candidate))
		if err != nil {
			return Value{}, err
		}
		notice = ""
		validate = true

		if line == "" {
			continue
		}
		override, err := parseOverride(syn, line)
		if err != nil {
			notice = fmt.Sprintf("*** Malformed value: %v\n", err)
			validate = false
			continue
		}
		candidate = override
	}
}

// parseOverride interprets an operator answer.
func parseOverride(syn *Syntax, line string) (any, error) {
	switch {
	case strings.HasPrefix(line, "0x0x"):
		return line[2:], nil
	case strings.HasPrefix(line, "0x"):
		digits := line[2:]
		if syn != nil && (syn.Base.IsOctets() || syn.Base == BaseTypeIpAddress) {
			b, err := hex.DecodeString(digits)
			if err != nil {
				return nil, fmt.Errorf("%q is not a hex string", digits)
			}
			return b, nil
		}
		n, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a hex number", digits)
		}
		return n, nil
	default:
		return line, nil
	}
}

func showCandidate(c any) string {
	if b, ok := c.([]byte); ok {
		return "0x" + hex.EncodeToString(b)
	}
	return fmt.Sprint(c)
}
