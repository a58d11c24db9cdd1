package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

func TestRunInTx(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		fn      func(tx pgx.Tx) error
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "commits on success",
			fn: func(tx pgx.Tx) error {
				_, err := tx.Exec(context.Background(), "UPDATE rooms SET is_available = true")
				return err
			},
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBeginTx(ReadCommitted)
				mock.ExpectExec("UPDATE rooms").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "rolls back on error",
			fn: func(tx pgx.Tx) error {
				return errBoom
			},
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBeginTx(ReadCommitted)
				mock.ExpectRollback()
			},
			wantErr: errBoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("new mock pool: %v", err)
			}
			defer mock.Close()
			tt.setup(mock)

			err = RunInTx(context.Background(), mock, ReadCommitted, tt.fn)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("RunInTx() error = %v; want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("RunInTx() error = %v; want %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestSQLStateHelpers(t *testing.T) {
	exclusion := &pgconn.PgError{Code: "23P01"}
	unique := &pgconn.PgError{Code: "23505"}

	if !IsExclusionViolation(exclusion) {
		t.Error("IsExclusionViolation(23P01) = false; want true")
	}
	if IsExclusionViolation(unique) {
		t.Error("IsExclusionViolation(23505) = true; want false")
	}
	if !IsUniqueViolation(unique) {
		t.Error("IsUniqueViolation(23505) = false; want true")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Error("IsUniqueViolation(plain) = true; want false")
	}
}
