package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkBookedIsUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	slot := time.Date(2025, 4, 14, 11, 0, 0, 0, time.UTC)
	created := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
	repo := NewDoctorSlotRepository(mock)
	cols := []string{"id", "doctor_id", "date_time", "is_booked", "created_at"}

	// повторная вставка того же слота возвращает ту же строку индекса
	mock.ExpectQuery("INSERT INTO doctor_slots .* ON CONFLICT \\(doctor_id, date_time\\) DO UPDATE .* RETURNING").
		WithArgs(int64(3), slot).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(12), int64(3), slot, true, created))
	mock.ExpectQuery("INSERT INTO doctor_slots").
		WithArgs(int64(3), slot).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(12), int64(3), slot, true, created))

	first, err := repo.MarkBooked(context.Background(), 3, slot)
	require.NoError(t, err)
	second, err := repo.MarkBooked(context.Background(), 3, slot)
	require.NoError(t, err)

	assert.Equal(t, int64(12), first.ID)
	assert.True(t, first.IsBooked)
	assert.Equal(t, slot, first.DateTime)
	assert.Equal(t, first, second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkBookedWrapsError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO doctor_slots").WillReturnError(errors.New("disk full"))

	_, err = NewDoctorSlotRepository(mock).MarkBooked(context.Background(), 3, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark doctor slot booked")
}

func TestReconcileSumsAffectedRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO doctor_slots").WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec("UPDATE doctor_slots ds").WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	affected, err := NewDoctorSlotRepository(mock).Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
