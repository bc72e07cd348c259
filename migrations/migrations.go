package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Execer runs a statement. *sql.DB and *sqlx.DB satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

var retryDelay = 1 * time.Second

// Tables lists the statements that create every listed entity table, in creation order.
var Tables = []struct {
	Name  string
	Query string
}{
	{"businesses", `
		CREATE TABLE IF NOT EXISTS businesses (
			id INT AUTO_INCREMENT PRIMARY KEY,
			ownerid VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			address VARCHAR(255) NOT NULL,
			city VARCHAR(255) NOT NULL,
			state CHAR(2) NOT NULL,
			zip CHAR(5) NOT NULL,
			phone CHAR(12) NOT NULL,
			category VARCHAR(255) NOT NULL,
			subcategory VARCHAR(255) NOT NULL,
			website VARCHAR(255),
			email VARCHAR(255),
			INDEX idx_ownerid (ownerid)
		);
	`},
	{"reviews", `
		CREATE TABLE IF NOT EXISTS reviews (
			id INT AUTO_INCREMENT PRIMARY KEY,
			userid VARCHAR(255) NOT NULL,
			businessid INT NOT NULL,
			dollars INT NOT NULL,
			stars DOUBLE NOT NULL,
			review TEXT,
			INDEX idx_userid (userid),
			INDEX idx_businessid (businessid)
		);
	`},
	{"photos", `
		CREATE TABLE IF NOT EXISTS photos (
			id INT AUTO_INCREMENT PRIMARY KEY,
			userid VARCHAR(255) NOT NULL,
			businessid INT NOT NULL,
			caption TEXT,
			data MEDIUMTEXT NOT NULL,
			INDEX idx_userid (userid),
			INDEX idx_businessid (businessid)
		);
	`},
	{"positions", `
		CREATE TABLE IF NOT EXISTS positions (
			id INT AUTO_INCREMENT PRIMARY KEY,
			applicantID VARCHAR(255) NOT NULL,
			positionName VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			requirements TEXT,
			posted_date VARCHAR(32) NOT NULL,
			city VARCHAR(255) NOT NULL,
			state CHAR(2) NOT NULL,
			salary VARCHAR(64),
			denied VARCHAR(16),
			INDEX idx_applicantID (applicantID)
		);
	`},
	{"companies", `
		CREATE TABLE IF NOT EXISTS companies (
			id INT AUTO_INCREMENT PRIMARY KEY,
			companyName VARCHAR(255) NOT NULL,
			description TEXT,
			glassdoorRating DOUBLE NOT NULL,
			website VARCHAR(255),
			sizeCategory VARCHAR(64) NOT NULL,
			hqCity VARCHAR(255) NOT NULL,
			hqState CHAR(2) NOT NULL
		);
	`},
	{"fields", `
		CREATE TABLE IF NOT EXISTS fields (
			id INT AUTO_INCREMENT PRIMARY KEY,
			fieldName VARCHAR(255) NOT NULL,
			description TEXT,
			averageSalary INT NOT NULL,
			lowSalary INT NOT NULL,
			highSalary INT NOT NULL
		);
	`},
}

// AutoMigrate creates every table that does not exist, retrying each statement up to
// retries times.
func AutoMigrate(ctx context.Context, retries int, db Execer) error {
	for _, table := range Tables {
		_, err := db.ExecContext(ctx, table.Query)
		if err != nil {
			// Retry creating the table
			for i := 0; i < retries; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryDelay):
				}
				_, err = db.ExecContext(ctx, table.Query)
				if err == nil {
					break
				}
			}
		}
		if err != nil {
			return fmt.Errorf("migrate %s: %w", table.Name, err)
		}
	}
	return nil
}
