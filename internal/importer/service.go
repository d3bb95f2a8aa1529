package importer

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/chdeimos/moneyo/internal/importer/cgd"
)

type Service struct {
	importers map[Bank]Importer
}

func NewService() *Service {
	return &Service{
		importers: map[Bank]Importer{
			BankCGD: cgdImporter{cgd.NewParser()},
		},
	}
}

// Import parses an export from bank and assigns every row to accountID.
func (s *Service) Import(bank Bank, accountID uuid.UUID, r io.Reader) (*Statement, error) {
	imp, ok := s.importers[bank]
	if !ok {
		return nil, fmt.Errorf("unknown bank: %s", bank)
	}

	st, err := imp.Parse(r)
	if err != nil {
		return nil, err
	}

	for i := range st.Rows {
		st.Rows[i].AccountID = accountID
	}

	return st, nil
}

// cgdImporter adapts the CGD parser, which cannot import this package.
type cgdImporter struct {
	p *cgd.Parser
}

func (c cgdImporter) Parse(r io.Reader) (*Statement, error) {
	res, err := c.p.Parse(r)
	if err != nil {
		return nil, err
	}

	return &Statement{Profile: res.Profile, Charset: res.Charset, Rows: res.Rows}, nil
}
