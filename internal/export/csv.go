package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/verte-zerg/runboard/internal/model"
)

// WriteCSV writes the raw rows in file order under the first row's header.
// Fields containing a delimiter, quote or line break are quoted, as are
// fields starting with a space or tab.
func WriteCSV(w io.Writer, rows []model.RawRow) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(rows[0].Headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.Values); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
