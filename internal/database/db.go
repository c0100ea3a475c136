package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const pingTimeout = 5 * time.Second

// Open dials the MySQL instance holding listings, bookings, reviews
// and favorites, and fails fast if it is unreachable.
//
// The DSN pins parseTime and loc=UTC: DATE columns must scan into
// UTC-midnight time.Time values or the half-open range arithmetic in
// the booking service drifts across zones.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		credentials(user, pass), host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	// Booking writes hold row locks for the length of a transaction,
	// so keep the pool modest and recycle connections before the
	// server-side wait_timeout can kill them.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

func credentials(user, pass string) string {
	if pass == "" {
		return user
	}
	return user + ":" + pass
}
