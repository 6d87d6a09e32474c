// Package repository implements the MySQL persistence layer. It also
// defines sentinel errors that are reused by every storage backend
// (including the in-memory one in repository/memory) so that services
// can tell failure scenarios apart without knowing which store is in use.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when registering a username that already exists.
var ErrUsernameTaken = errors.New("username already exists")

// ErrDuplicateExternalID is returned when a movie with the same
// kinopoisk_id already exists.
var ErrDuplicateExternalID = errors.New("kinopoisk_id already exists")

// ErrGenreNameTaken and ErrGenreSlugTaken report genre unique index
// violations on the name and slug columns respectively.
var (
	ErrGenreNameTaken = errors.New("genre name already exists")
	ErrGenreSlugTaken = errors.New("genre slug already exists")
)

// ErrFavoriteExists is returned when the (user, movie) pair is already
// favorited. Callers treat it as "read the existing row".
var ErrFavoriteExists = errors.New("favorite already exists")

// ErrInvalidRefresh is returned when a refresh token is unknown,
// revoked or expired.
var ErrInvalidRefresh = errors.New("invalid refresh token")

// MySQL server error numbers the repositories react to.
const (
	mysqlDuplicateEntry   = 1062
	mysqlNoReferencedRow  = 1452
	mysqlNoReferencedRow2 = 1216
)

// isDuplicate reports whether err is a unique index violation. When key
// is non-empty the violated index name must contain it.
func isDuplicate(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}

// isMissingReference reports whether err is a foreign key violation on insert.
func isMissingReference(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlNoReferencedRow || me.Number == mysqlNoReferencedRow2
}

// escapeLike escapes the LIKE wildcards in s so it matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
