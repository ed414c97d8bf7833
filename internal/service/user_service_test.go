package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/repository"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var userCols = []string{"id", "name", "email", "role", "telegram_id", "created_at"}

func newUserFixture(t *testing.T) (pgxmock.PgxPoolIface, *UserService) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return mock, NewUserService(mock, repository.NewUserRepository(mock), zap.NewNop())
}

func TestNormalizeDoctorQuery(t *testing.T) {
	cases := map[string]string{
		"Dr. Smith":       "Smith",
		"dr smith":        "smith",
		"Doctor Anna Rao": "Anna Rao",
		"  Smith.  ":      "Smith",
		"Doctor":          "Doctor",
		"Drake":           "Drake",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDoctorQuery(in), in)
	}
}

func TestDoctorDisplayName(t *testing.T) {
	assert.Equal(t, "Dr. Smith", DoctorDisplayName("Smith"))
	assert.Equal(t, "Dr. Smith", DoctorDisplayName("Dr. Smith"))
	assert.Equal(t, "Doctor Who", DoctorDisplayName("Doctor Who"))
	assert.Equal(t, "Dr. Drake Ramoray", DoctorDisplayName("Drake Ramoray"))
}

func TestFindDoctorsStripsHonorific(t *testing.T) {
	mock, svc := newUserFixture(t)

	mock.ExpectQuery("FROM users").
		WithArgs(model.RoleDoctor, "%Smith%").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(3), "Smith", "smith@clinic.test", model.RoleDoctor, (*int64)(nil), time.Now()))

	doctors, err := svc.FindDoctors(context.Background(), "Dr. Smith")
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, int64(3), doctors[0].ID)
}

func TestFindDoctorsNoMatch(t *testing.T) {
	mock, svc := newUserFixture(t)

	mock.ExpectQuery("FROM users").
		WithArgs(model.RoleDoctor, "%House%").
		WillReturnRows(pgxmock.NewRows(userCols))

	_, err := svc.FindDoctors(context.Background(), "Dr. House")
	require.ErrorIs(t, err, ErrDoctorNotFound)

	_, err = svc.FindDoctors(context.Background(), "  ?  ")
	require.ErrorIs(t, err, ErrDoctorNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDoctorsDatabaseError(t *testing.T) {
	mock, svc := newUserFixture(t)

	mock.ExpectQuery("FROM users").WillReturnError(errors.New("broken pipe"))

	_, err := svc.FindDoctors(context.Background(), "Smith")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestPing(t *testing.T) {
	mock, svc := newUserFixture(t)

	mock.ExpectPing()
	require.NoError(t, svc.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("dial tcp: connection refused"))
	require.ErrorIs(t, svc.Ping(context.Background()), ErrUnavailable)
}

func TestResolveStudent(t *testing.T) {
	mock, svc := newUserFixture(t)

	_, err := svc.ResolveStudent(context.Background(), 0)
	require.ErrorIs(t, err, ErrNoIdentity)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(5), "Ravi", "ravi@campus.test", model.RoleStudent, (*int64)(nil), time.Now()))
	student, err := svc.ResolveStudent(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", student.Name)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(3), "Smith", "smith@clinic.test", model.RoleDoctor, (*int64)(nil), time.Now()))
	_, err = svc.ResolveStudent(context.Background(), 3)
	require.ErrorIs(t, err, ErrNoIdentity)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)
	_, err = svc.ResolveStudent(context.Background(), 99)
	require.ErrorIs(t, err, ErrNoIdentity)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentByTelegramID(t *testing.T) {
	mock, svc := newUserFixture(t)

	telegramID := int64(4242)
	mock.ExpectQuery("FROM users WHERE telegram_id").
		WithArgs(telegramID).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(5), "Ravi", "ravi@campus.test", model.RoleStudent, &telegramID, time.Now()))

	student, err := svc.StudentByTelegramID(context.Background(), telegramID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), student.ID)

	mock.ExpectQuery("FROM users WHERE telegram_id").
		WithArgs(int64(1)).
		WillReturnError(pgx.ErrNoRows)
	_, err = svc.StudentByTelegramID(context.Background(), 1)
	require.ErrorIs(t, err, ErrNoIdentity)
}
