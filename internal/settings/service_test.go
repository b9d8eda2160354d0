package settings

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

func setupSettingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CompanySettings{}))
	return db
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

func TestResolve_NoRowIsConfigurationError(t *testing.T) {
	svc, err := NewService(NewRepository(setupSettingsTestDB(t)))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConfiguration, appErr.Code())
}

func TestResolve_MostRecentlyUpdatedRowWins(t *testing.T) {
	db := setupSettingsTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	old := models.CompanySettings{
		CompanyName:    "Oude BV",
		DefaultVATRate: decimal.NewFromInt(21),
		UpdatedAt:      time.Now().Add(-time.Hour),
	}
	current := models.CompanySettings{
		CompanyName:    "Havenwerk BV",
		DefaultVATRate: decimal.NewFromInt(21),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&current).Error)

	got, err := svc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Havenwerk BV", got.CompanyName)
}

func TestUpdate_CreatesFirstRow(t *testing.T) {
	svc, err := NewService(NewRepository(setupSettingsTestDB(t)))
	require.NoError(t, err)

	rate := decimal.NewFromInt(9)
	got, err := svc.Update(context.Background(), UpdateInput{
		CompanyName:    strPtr("Havenwerk BV"),
		DefaultVATRate: &rate,
		InvoiceDueDays: intPtr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, "Havenwerk BV", got.CompanyName)
	assert.True(t, rate.Equal(got.DefaultVATRate))
	assert.Equal(t, 30, got.InvoiceDueDays)
}

func TestUpdate_EnablingSyncRequiresToken(t *testing.T) {
	svc, err := NewService(NewRepository(setupSettingsTestDB(t)))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), UpdateInput{
		CompanyName:        strPtr("Havenwerk BV"),
		EBoekhoudenEnabled: boolPtr(true),
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = svc.Update(context.Background(), UpdateInput{
		CompanyName:         strPtr("Havenwerk BV"),
		EBoekhoudenEnabled:  boolPtr(true),
		EBoekhoudenAPIToken: strPtr("secret-token"),
	})
	require.NoError(t, err)
}

func TestUpdate_RejectsNegativeValues(t *testing.T) {
	svc, err := NewService(NewRepository(setupSettingsTestDB(t)))
	require.NoError(t, err)

	negative := decimal.NewFromInt(-1)
	_, err = svc.Update(context.Background(), UpdateInput{
		CompanyName:    strPtr("Havenwerk BV"),
		DefaultVATRate: &negative,
	})
	require.Error(t, err)

	_, err = svc.Update(context.Background(), UpdateInput{
		CompanyName:    strPtr("Havenwerk BV"),
		InvoiceDueDays: intPtr(-5),
	})
	require.Error(t, err)
}

func TestLedgerEnabled(t *testing.T) {
	assert.False(t, LedgerEnabled(nil))
	assert.False(t, LedgerEnabled(&models.CompanySettings{EBoekhoudenEnabled: true}))
	assert.False(t, LedgerEnabled(&models.CompanySettings{EBoekhoudenAPIToken: "tok"}))
	assert.True(t, LedgerEnabled(&models.CompanySettings{EBoekhoudenEnabled: true, EBoekhoudenAPIToken: "tok"}))
}
