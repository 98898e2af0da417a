package rdb

import (
	"testing"

	"github.com/hatlonely/sorm/cfg"
	"github.com/hatlonely/sorm/cfg/decoder"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintColumns(t *testing.T) {
	assert.Equal(t, []string{"name"}, constraintColumns("UNIQUE constraint failed: country.name"))
	assert.Equal(t, []string{"a", "b"}, constraintColumns("UNIQUE constraint failed: t.a, t.b"))
	assert.Nil(t, constraintColumns("disk I/O error"))
}

func TestErrorKinds(t *testing.T) {
	ve := &ValidationError{Table: "user", Field: "name", Reason: "required field has no value"}
	assert.True(t, errors.Is(ve, ErrValidation))
	assert.False(t, errors.Is(ve, ErrUniqueness))
	assert.Equal(t, "user.name: required field has no value", ve.Error())
	assert.Equal(t, "user: nothing to update", (&ValidationError{Table: "user", Reason: "nothing to update"}).Error())

	cause := errors.New("UNIQUE constraint failed: user.name")
	ue := &UniquenessError{Table: "user", Columns: []string{"name"}, cause: cause}
	wrapped := errors.WithMessage(ue, "signup")
	assert.True(t, errors.Is(wrapped, ErrUniqueness))
	assert.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, cause, errors.Cause(ue))

	other := translateError("user", errors.New("database is locked"))
	assert.False(t, errors.Is(other, ErrUniqueness))
	assert.ErrorContains(t, other, "database is locked")
}

func TestOptions(t *testing.T) {
	t.Run("dsn", func(t *testing.T) {
		o := &Options{Database: ":memory:", JournalMode: "WAL", BusyTimeout: 5e9}
		assert.Equal(t, ":memory:?_busy_timeout=5000&_foreign_keys=1&_journal_mode=WAL", o.DSN())

		o = &Options{Database: "file:app.db?cache=shared", DisableForeignKeys: true}
		assert.Equal(t, "file:app.db?cache=shared&_foreign_keys=0", o.DSN())
	})

	t.Run("from config", func(t *testing.T) {
		c, err := cfg.NewConfigWithDecoder([]byte(`
database:
  database: /tmp/sorm.db
  journalMode: DELETE
  busyTimeout: 2s
  traceSQL: true
`), decoder.NewYamlDecoder())
		require.NoError(t, err)

		var options Options
		require.NoError(t, c.Sub("database").ConvertTo(&options))
		assert.Equal(t, "/tmp/sorm.db", options.Database)
		assert.Equal(t, "DELETE", options.JournalMode)
		assert.Equal(t, "sorm", options.Name)
		assert.True(t, options.TraceSQL)
		assert.Equal(t, "/tmp/sorm.db?_busy_timeout=2000&_foreign_keys=1&_journal_mode=DELETE", options.DSN())
	})

	t.Run("invalid journal mode", func(t *testing.T) {
		c, err := cfg.NewConfigWithDecoder([]byte(`{"journalMode": "FAST"}`), decoder.NewJsonDecoder())
		require.NoError(t, err)
		var options Options
		assert.Error(t, c.ConvertTo(&options))
	})
}
