package persistence

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDatabaseConfigFromEnv(t *testing.T) {
	t.Run("should fail when DATABASE_ARGS is not set", func(t *testing.T) {
		os.Unsetenv("DATABASE_DRIVER")
		os.Unsetenv("DATABASE_ARGS")

		config, err := ParseDatabaseConfigFromEnv()
		assert.Nil(t, config)
		assert.NotNil(t, err)
	})

	t.Run("should default driver to mysql", func(t *testing.T) {
		os.Unsetenv("DATABASE_DRIVER")
		os.Setenv("DATABASE_ARGS", "root:root@(127.0.0.1:3306)/wetlands?charset=utf8mb4")
		defer os.Unsetenv("DATABASE_ARGS")

		config, err := ParseDatabaseConfigFromEnv()
		assert.Nil(t, err)
		assert.Equal(t, "mysql", config.DriverType)
		assert.Equal(t, "root:root@(127.0.0.1:3306)/wetlands?charset=utf8mb4", config.DriverArgs)
	})

	t.Run("should expand environment variables in args", func(t *testing.T) {
		os.Setenv("DB_PASS", "secret")
		os.Setenv("DATABASE_ARGS", "root:${DB_PASS}@(127.0.0.1:3306)/wetlands")
		defer func() {
			os.Unsetenv("DB_PASS")
			os.Unsetenv("DATABASE_ARGS")
		}()

		config, err := ParseDatabaseConfigFromEnv()
		assert.Nil(t, err)
		assert.Equal(t, "root:secret@(127.0.0.1:3306)/wetlands", config.DriverArgs)
	})
}

func TestSplitMysqlDatabaseName(t *testing.T) {
	t.Run("should split database name and server args", func(t *testing.T) {
		name, serverArgs, err := splitMysqlDatabaseName("root:root@(127.0.0.1:3306)/wetlands?charset=utf8mb4")
		assert.Nil(t, err)
		assert.Equal(t, "wetlands", name)
		assert.Equal(t, "root:root@(127.0.0.1:3306)/?charset=utf8mb4", serverArgs)
	})

	t.Run("should work without params", func(t *testing.T) {
		name, serverArgs, err := splitMysqlDatabaseName("root:root@(127.0.0.1:3306)/wetlands")
		assert.Nil(t, err)
		assert.Equal(t, "wetlands", name)
		assert.Equal(t, "root:root@(127.0.0.1:3306)/", serverArgs)
	})

	t.Run("should fail on invalid args", func(t *testing.T) {
		_, _, err := splitMysqlDatabaseName("no-database-here")
		assert.NotNil(t, err)

		_, _, err = splitMysqlDatabaseName("root:root@(127.0.0.1:3306)/?charset=utf8mb4")
		assert.NotNil(t, err)
	})
}
