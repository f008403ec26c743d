package quote

import (
	"context"
	"database/sql"
	"strings"

	"aeroparts/internal/models"
)

// Inventory looks up stock rows by part number. Implementations must
// treat any transport or decoding problem as a single error; callers
// never see partial results.
type Inventory interface {
	FindByPartNumbers(ctx context.Context, terms []string) ([]models.StockItem, error)
}

// SQLInventory queries the stock table with an IN-list on part number.
type SQLInventory struct {
	DB *sql.DB
}

func (s *SQLInventory) FindByPartNumbers(ctx context.Context, terms []string) ([]models.StockItem, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(terms))
	args := make([]interface{}, len(terms))
	for i, t := range terms {
		placeholders[i] = "?"
		// Terms arrive uppercased from ParseTerms; uppercase again so a
		// caller bypassing the parser still matches.
		args[i] = strings.ToUpper(t)
	}
	query := `SELECT id, part_number, COALESCE(description,''), quantity, condition,
		COALESCE(serial_number,''), COALESCE(location,''), created_at, updated_at
		FROM stock WHERE part_number IN (` + strings.Join(placeholders, ",") + `) ORDER BY part_number, id`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.StockItem
	for rows.Next() {
		it, err := models.ScanStockItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
