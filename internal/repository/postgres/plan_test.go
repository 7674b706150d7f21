package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/generation"
)

func TestPlanLookupHit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT plan").
		WithArgs("acme.io", "fr").
		WillReturnRows(sqlmock.NewRows([]string{"plan"}).
			AddRow([]byte(`{"introduction":"Bonjour"}`)))

	repo := NewPlanRepo(db)
	plan, err := repo.Lookup(context.Background(), "acme.io", domain.LanguageFR)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", plan.Introduction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanLookupMissIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT plan").
		WithArgs("acme.io", "en").
		WillReturnRows(sqlmock.NewRows([]string{"plan"}))

	repo := NewPlanRepo(db)
	_, err = repo.Lookup(context.Background(), "acme.io", domain.LanguageEN)
	assert.ErrorIs(t, err, generation.ErrNotFound)
}

func TestPlanLookupCorruptDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT plan").
		WithArgs("acme.io", "en").
		WillReturnRows(sqlmock.NewRows([]string{"plan"}).AddRow([]byte(`not json`)))

	repo := NewPlanRepo(db)
	_, err = repo.Lookup(context.Background(), "acme.io", domain.LanguageEN)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode stored plan")
}

func TestPlanUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO marketing_plans").
		WithArgs("acme.io", "en", "cto@acme.io", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPlanRepo(db)
	err = repo.Upsert(context.Background(), domain.StoredPlan{
		NormalizedDomain: "acme.io",
		Language:         domain.LanguageEN,
		Email:            "cto@acme.io",
		Plan:             domain.MarketingPlan{Introduction: "hello"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanUpsertPropagatesDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO marketing_plans").
		WillReturnError(errors.New("connection reset"))

	repo := NewPlanRepo(db)
	err = repo.Upsert(context.Background(), domain.StoredPlan{
		NormalizedDomain: "acme.io",
		Language:         domain.LanguageEN,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert plan")
}
