// Package protocol parses the serial programming stream: single-byte
// commands plus newline-terminated hex colors.
package protocol

import (
	"fmt"
	"io"

	"github.com/coreman2200/lightdimmer/internal/color"
)

const (
	QueryByte   byte = 'g'
	CreditsByte byte = '\a'
	Terminator  byte = '\n'

	// MaxLine bounds the line buffer. Anything longer can never be a valid
	// color so the line is only remembered as overflowed.
	MaxLine = 32

	InvalidMessage = "Invalid hex value!"
)

// Kind of parsed action.
type Kind int

const (
	Query Kind = iota
	SetColor
	Invalid
	ShowCredits
)

func (k Kind) String() string {
	switch k {
	case Query:
		return "query"
	case SetColor:
		return "set_color"
	case Invalid:
		return "invalid"
	case ShowCredits:
		return "credits"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action is produced when the parser recognizes a command.
type Action struct {
	Kind  Kind
	Color color.Sample
	// HasMain is true for the 8-digit form; Color.M is meaningless otherwise.
	HasMain bool
	// Line holds the raw buffered text for SetColor and Invalid.
	Line string
}

// Parser accumulates bytes from one stream. The zero value is ready to use.
type Parser struct {
	buf      [MaxLine]byte
	n        int
	overflow bool
}

// Feed consumes one byte. It returns an action and true when b completes a
// command; otherwise the byte is buffered.
func (p *Parser) Feed(b byte) (Action, bool) {
	switch b {
	case QueryByte:
		p.reset()
		return Action{Kind: Query}, true
	case CreditsByte:
		p.reset()
		return Action{Kind: ShowCredits}, true
	case Terminator:
		a := p.classify()
		p.reset()
		return a, true
	}
	if p.n == len(p.buf) {
		p.overflow = true
		return Action{}, false
	}
	p.buf[p.n] = b
	p.n++
	return Action{}, false
}

// Pending returns the bytes buffered since the last action.
func (p *Parser) Pending() string { return string(p.buf[:p.n]) }

func (p *Parser) reset() {
	p.n = 0
	p.overflow = false
}

func (p *Parser) classify() Action {
	line := string(p.buf[:p.n])
	if p.overflow {
		return Action{Kind: Invalid, Line: line}
	}
	c, hasMain, err := color.Parse(line)
	if err != nil {
		return Action{Kind: Invalid, Line: line}
	}
	return Action{Kind: SetColor, Color: c, HasMain: hasMain, Line: line}
}

// Report writes the status block answered to a query.
func Report(w io.Writer, s color.Sample) error {
	_, err := fmt.Fprintf(w, "Current Color: %s\r\nR: %d\r\nG: %d\r\nB: %d\r\nM: %d\r\n",
		s.Hex(), s.R, s.G, s.B, s.M)
	return err
}

// ReportInvalid writes the message sent back for a rejected line.
func ReportInvalid(w io.Writer) error {
	_, err := io.WriteString(w, InvalidMessage+"\r\n")
	return err
}
