package persistence

import (
	"database/sql"
	"errors"
	"os"
	"strings"
)

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv DATABASE_DRIVER (default mysql), DATABASE_ARGS
// e.g. DATABASE_ARGS="root:root@(127.0.0.1:3306)/wetlands?charset=utf8mb4&parseTime=True&loc=Local"
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = "mysql"
	}
	args := os.ExpandEnv(os.Getenv("DATABASE_ARGS"))
	if args == "" {
		return nil, errors.New("environment variable DATABASE_ARGS is not set")
	}
	return &DatabaseConfig{DriverType: driver, DriverArgs: args}, nil
}

// PrepareMysqlDatabase create the database of the DSN when absent.
func PrepareMysqlDatabase(driverArgs string) error {
	databaseName, serverArgs, err := splitMysqlDatabaseName(driverArgs)
	if err != nil {
		return err
	}

	db, err := sql.Open("mysql", serverArgs)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName + "` CHARACTER SET utf8mb4")
	return err
}

func splitMysqlDatabaseName(driverArgs string) (string, string, error) {
	idx := strings.LastIndex(driverArgs, "/")
	if idx < 0 {
		return "", "", errors.New("invalid mysql driver args: " + driverArgs)
	}
	nameAndParams := driverArgs[idx+1:]
	name := nameAndParams
	if paramsIdx := strings.Index(nameAndParams, "?"); paramsIdx >= 0 {
		name = nameAndParams[0:paramsIdx]
	}
	if name == "" {
		return "", "", errors.New("database name not found in driver args: " + driverArgs)
	}
	serverArgs := driverArgs[0:idx+1] + strings.TrimPrefix(nameAndParams, name)
	return name, serverArgs, nil
}
