package formatter

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Numbers formats percentages and quantities for one locale. Node percents
// and the project overall carry their own number of decimals.
type Numbers struct {
	printer         *message.Printer
	NodeDecimals    int
	ProjectDecimals int
}

// NewNumbers builds a Numbers for a BCP 47 locale such as "en" or "pt-BR".
// An unparsable locale falls back to English.
func NewNumbers(locale string, nodeDecimals, projectDecimals int) *Numbers {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Numbers{
		printer:         message.NewPrinter(tag),
		NodeDecimals:    nodeDecimals,
		ProjectDecimals: projectDecimals,
	}
}

// Decimal formats v with exactly the given number of fraction digits.
func (n *Numbers) Decimal(v float64, decimals int) string {
	return n.printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	))
}

// Percent formats a 0-100 value with the given decimals and a trailing %.
func (n *Numbers) Percent(v float64, decimals int) string {
	return n.Decimal(v, decimals) + "%"
}

// NodePercent formats a node percent.
func (n *Numbers) NodePercent(v float64) string { return n.Percent(v, n.NodeDecimals) }

// ProjectPercent formats a project overall percent.
func (n *Numbers) ProjectPercent(v float64) string { return n.Percent(v, n.ProjectDecimals) }
