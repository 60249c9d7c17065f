// internal/utils/pagination_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type paginationRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func newPaginationDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:pagination_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&paginationRow{}))
	require.NoError(t, db.Where("1 = 1").Delete(&paginationRow{}).Error)

	for i := 0; i < 25; i++ {
		require.NoError(t, db.Create(&paginationRow{Name: "row"}).Error)
	}
	return db
}

func TestApplyPaginationDefaultsZeroValueParams(t *testing.T) {
	db := newPaginationDB(t)

	// service-level callers pass a zero value when no paging was requested
	var rows []paginationRow
	require.NoError(t, ApplyPagination(db, PaginationParams{}).Find(&rows).Error)
	assert.Len(t, rows, 20)
}

func TestApplyPaginationSecondPage(t *testing.T) {
	db := newPaginationDB(t)

	var rows []paginationRow
	require.NoError(t, ApplyPagination(db, PaginationParams{Page: 2, Limit: 20}).Find(&rows).Error)
	assert.Len(t, rows, 5)
}

func TestApplyPaginationClampsLimit(t *testing.T) {
	db := newPaginationDB(t)

	var rows []paginationRow
	require.NoError(t, ApplyPagination(db, PaginationParams{Page: 1, Limit: 1000}).Find(&rows).Error)
	assert.Len(t, rows, 20)
}

func TestCreatePaginationResultZeroValueParams(t *testing.T) {
	result := CreatePaginationResult(nil, 45, PaginationParams{})
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.Limit)
	assert.Equal(t, 3, result.TotalPages)
}
