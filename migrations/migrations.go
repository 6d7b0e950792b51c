// Package migrations содержит SQL-схему хранилища заказов на Postgres
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
