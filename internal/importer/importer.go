// Package importer turns bank statement exports into ledger rows.
package importer

import (
	"io"

	"github.com/chdeimos/moneyo/internal/encoding"
	"github.com/chdeimos/moneyo/internal/ledger"
)

type Bank string

const (
	BankCGD Bank = "cgd"
)

// Statement is a parsed export. Rows carry no account yet.
type Statement struct {
	Profile string
	Charset encoding.Charset
	Rows    []ledger.CreateParams
}

type Importer interface {
	Parse(r io.Reader) (*Statement, error)
}
