package database

import (
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

// NewMockPool pool pgxmock para tests de repositorios. Satisface Querier y TxBeginner;
// llamar ExpectationsWereMet() al final de cada test.
func NewMockPool() (pgxmock.PgxPoolIface, error) {
	return pgxmock.NewPool()
}
