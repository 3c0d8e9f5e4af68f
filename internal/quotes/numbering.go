package quotes

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// nextNumberSQL bumps the per company and year counter. The upsert takes a row lock,
// so concurrent creators for the same key queue behind each other until commit. A new
// counter row starts after the highest number already stored for that year.
const nextNumberSQL = `INSERT INTO quote_number_sequences (company_id, year, last_number, updated_at)
VALUES ($1, $2, COALESCE((SELECT MAX(number) FROM quotes WHERE company_id = $1 AND year = $2), 0) + 1, NOW())
ON CONFLICT (company_id, year) DO UPDATE
SET last_number = quote_number_sequences.last_number + 1, updated_at = NOW()
RETURNING last_number`

// AssignNumber allocates the next quote number for companyID in year. It must run in
// the transaction that inserts the quote so a rollback also undoes the increment.
func AssignNumber(ctx context.Context, tx pgx.Tx, companyID int64, year int) (int64, error) {
	var number int64
	if err := tx.QueryRow(ctx, nextNumberSQL, companyID, year).Scan(&number); err != nil {
		return 0, fmt.Errorf("assign quote number: %w", err)
	}
	return number, nil
}
