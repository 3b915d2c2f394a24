package repository

import (
	"path/filepath"
	"testing"

	"github.com/kutbudev/taggable/pkg/config"
	"github.com/kutbudev/taggable/pkg/models"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(path string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: path},
		Log:      config.LogConfig{Level: "error"},
	}
}

func TestNewDatabase_MigratesTables(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(":memory:"))
	require.NoError(t, err)
	defer Close(db)

	require.True(t, db.Migrator().HasTable(&models.Tag{}))
	require.True(t, db.Migrator().HasTable(&models.Tagging{}))
	require.True(t, db.Migrator().HasIndex(&models.Tag{}, "idx_tags_name"))
	require.NoError(t, Health(db))
}

func TestNewDatabase_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tags.db")
	db, err := NewDatabase(sqliteConfig(path))
	require.NoError(t, err)
	require.NoError(t, Close(db))

	require.FileExists(t, path)
}

func TestNewDatabase_ExtraModels(t *testing.T) {
	type widget struct {
		ID   uint
		Name string
	}
	db, err := NewDatabase(sqliteConfig(":memory:"), &widget{})
	require.NoError(t, err)
	defer Close(db)

	require.True(t, db.Migrator().HasTable(&widget{}))
}

func TestNewDatabase_UniqueTagName(t *testing.T) {
	db, err := NewDatabase(sqliteConfig(":memory:"))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.Create(&models.Tag{Name: "red"}).Error)
	require.Error(t, db.Create(&models.Tag{Name: " red "}).Error)
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase(&config.Config{Database: config.DatabaseConfig{Driver: "oracle"}})
	require.Error(t, err)
}
