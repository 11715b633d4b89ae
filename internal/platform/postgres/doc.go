// Package postgres provides a PostgreSQL implementation of the kv.Store
// interface, so offline client state can live in a shared database instead of
// local files. It handles connection setup through the pgx stdlib driver,
// embedded goose migrations and mapping of driver errors.
package postgres
