package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestTranslatePgError(t *testing.T) {
	require.NoError(t, translatePgError(nil))
	require.ErrorIs(t, translatePgError(pgx.ErrNoRows), ErrNotFound)

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	err := translatePgError(dup)
	require.ErrorIs(t, err, ErrDuplicate)
	require.Contains(t, err.Error(), "users_email_key")

	require.ErrorIs(t, translatePgError(&pgconn.PgError{Code: "22P02"}), ErrNotFound)

	other := errors.New("boom")
	require.Equal(t, other, translatePgError(other))
}

func TestBuildAnalysis(t *testing.T) {
	require.Nil(t, buildAnalysis(nil, nil, nil, nil))

	title, desc, kind := "Fire", "Smoke seen", "EMERGENCY"
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	analysis := buildAnalysis(&title, &desc, &kind, &at)
	require.NotNil(t, analysis)
	require.Equal(t, "Fire", analysis.Title)
	require.Equal(t, "Smoke seen", analysis.Description)
	require.EqualValues(t, "EMERGENCY", analysis.ReportType)
	require.Equal(t, at, analysis.AnalyzedAt)
}
