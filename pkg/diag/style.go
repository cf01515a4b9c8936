package diag

import (
	"github.com/fatih/color"
)

// Style decorates the parts of a rendered diagnostic.
type Style interface {
	Severity(s string) string
	Header(s string) string
	Gutter(s string) string
	Underline(s string) string
	Message(s string) string
}

// Plain leaves every part undecorated.
var Plain Style = plainStyle{}

type plainStyle struct{}

func (plainStyle) Severity(s string) string  { return s }
func (plainStyle) Header(s string) string    { return s }
func (plainStyle) Gutter(s string) string    { return s }
func (plainStyle) Underline(s string) string { return s }
func (plainStyle) Message(s string) string   { return s }

type colorStyle struct {
	severity  *color.Color
	header    *color.Color
	gutter    *color.Color
	underline *color.Color
	message   *color.Color
}

// Colored returns a Style that emits ANSI colors regardless of the global
// color.NoColor setting. Choose between Colored and Plain once at startup.
func Colored() Style {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		c.EnableColor()
		return c
	}
	return &colorStyle{
		severity:  mk(color.FgRed, color.Bold),
		header:    mk(color.Bold),
		gutter:    mk(color.FgBlue, color.Bold),
		underline: mk(color.FgRed, color.Bold),
		message:   mk(color.FgRed),
	}
}

// StyleFor returns Colored when colored is true and Plain otherwise.
func StyleFor(colored bool) Style {
	if colored {
		return Colored()
	}
	return Plain
}

func (s *colorStyle) Severity(v string) string  { return s.severity.Sprint(v) }
func (s *colorStyle) Header(v string) string    { return s.header.Sprint(v) }
func (s *colorStyle) Gutter(v string) string    { return s.gutter.Sprint(v) }
func (s *colorStyle) Underline(v string) string { return s.underline.Sprint(v) }
func (s *colorStyle) Message(v string) string   { return s.message.Sprint(v) }
