package mib2dev

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInputClosed is returned when the operator input ends while an answer
// is still required.
var ErrInputClosed = errors.New("operator input closed")

// Console is the line-oriented operator terminal: prompts and banners are
// written to out, answers are read from in.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole returns a Console reading answers from in and writing to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Printf writes a banner or notice.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Ask writes prompt and returns the next input line with surrounding white
// space removed. A final line without a newline is still returned.
func (c *Console) Ask(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line != "" {
				return strings.TrimSpace(line), nil
			}
			return "", ErrInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Decider is the source of the walk's decisions: whether generated values
// are accepted without asking, what the operator says about a value, and
// whether to pad a table with one more row.
type Decider interface {
	// Automatic reports whether generated values are validated and accepted
	// without asking the operator first.
	Automatic() bool
	// Review shows hint and the current candidate and returns the
	// operator's answer. An empty answer accepts the candidate.
	Review(hint, candidate string) (string, error)
	// SynthesizeRow decides whether row number n of the table rooted at row
	// is fabricated.
	SynthesizeRow(row OID, n int) (bool, error)
}

// AutomaticDecider accepts every valid generated value and always pads
// tables. The operator is only asked about values that fail validation.
type AutomaticDecider struct {
	Console *Console
}

func (d AutomaticDecider) Automatic() bool { return true }

func (d AutomaticDecider) Review(hint, candidate string) (string, error) {
	return review(d.Console, hint, candidate)
}

func (d AutomaticDecider) SynthesizeRow(row OID, n int) (bool, error) {
	return true, nil
}

// InteractiveDecider asks the operator about every value and every
// additional row.
type InteractiveDecider struct {
	Console *Console
}

func (d InteractiveDecider) Automatic() bool { return false }

func (d InteractiveDecider) Review(hint, candidate string) (string, error) {
	return review(d.Console, hint, candidate)
}

// SynthesizeRow asks until the answer starts with y or n.
func (d InteractiveDecider) SynthesizeRow(row OID, n int) (bool, error) {
	for {
		line, err := d.Console.Ask(fmt.Sprintf("# Synthesize row #%d for table %s (y/n)? ", n, row))
		if err != nil {
			return false, err
		}
		if line == "" {
			continue
		}
		switch line[0] {
		case 'y', 'Y':
			return true, nil
		case 'n', 'N':
			return false, nil
		}
	}
}

func review(c *Console, hint, candidate string) (string, error) {
	if c == nil {
		return "", ErrInputClosed
	}
	return c.Ask(fmt.Sprintf("%s# Value ['%s'] ? ", hint, candidate))
}
