package base

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX общий интерфейс пула и транзакции.
// Репозитории работают с ним, чтобы одни и те же запросы шли и через пул, и внутри tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner умеет открывать транзакцию (pgxpool.Pool, pgxmock)
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pinger проверяет доступность базы
type Pinger interface {
	Ping(ctx context.Context) error
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// uniqueViolation - SQLSTATE нарушения уникального индекса
const uniqueViolation = "23505"

// IsUniqueViolation проверяет, что ошибка пришла от уникального индекса
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
