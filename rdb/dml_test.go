package rdb

import (
	"fmt"
	"testing"

	"github.com/hatlonely/sorm/field"
	"github.com/hatlonely/sorm/record"
	"github.com/hatlonely/sorm/schema"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlayerType(calls *int, opts ...schema.Option) *record.Type {
	token := field.GeneratorFunc(func(values field.Values) (any, error) {
		*calls++
		name, _ := values.Get("name")
		return fmt.Sprintf("%v-%d", name, *calls), nil
	})
	s := schema.New("Player", opts...).
		Field("id", field.Integer(field.PrimaryKey(), field.AutoIncrement())).
		Field("name", field.Text(field.Required())).
		Field("sex", field.Enum([]string{"m", "f"}, field.DefaultValue("m"))).
		Field("token", field.Text(field.DefaultGenerator("token", token))).
		Field("bio", field.Text()).
		MustBuild()
	return record.NewType(s, nil)
}

func TestBuildInsert(t *testing.T) {
	t.Run("defaults are resolved and kept on the record", func(t *testing.T) {
		calls := 0
		r := newPlayerType(&calls).MustNew(map[string]any{"name": "al"})

		stmt, generatedKey, err := buildInsert(r)
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "player" ("id", "name", "sex", "token", "bio") VALUES (?, ?, ?, ?, ?)`, stmt.SQL)
		assert.Equal(t, []any{nil, "al", "m", "al-1", nil}, stmt.Args)
		assert.Equal(t, "id", generatedKey)
		assert.Equal(t, 1, calls)

		sex, _ := r.Get("sex")
		token, _ := r.Get("token")
		assert.Equal(t, "m", sex)
		assert.Equal(t, "al-1", token)
		assert.False(t, r.Has("bio"))
	})

	t.Run("caller values win over defaults", func(t *testing.T) {
		calls := 0
		r := newPlayerType(&calls).MustNew(map[string]any{"name": "bo", "sex": "f", "token": "fixed"})

		stmt, _, err := buildInsert(r)
		require.NoError(t, err)
		assert.Equal(t, []any{nil, "bo", "f", "fixed", nil}, stmt.Args)
		assert.Equal(t, 0, calls)
	})

	t.Run("explicit nil falls back to the default", func(t *testing.T) {
		calls := 0
		r := newPlayerType(&calls).MustNew(map[string]any{"name": "cy", "sex": nil})

		stmt, _, err := buildInsert(r)
		require.NoError(t, err)
		assert.Equal(t, "m", stmt.Args[2])
	})

	t.Run("missing required value", func(t *testing.T) {
		calls := 0
		r := newPlayerType(&calls).MustNew(nil)

		_, _, err := buildInsert(r)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))

		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "player", ve.Table)
		assert.Equal(t, "name", ve.Field)
	})

	t.Run("caller assigned primary key without value", func(t *testing.T) {
		for _, pk := range []*field.Field{field.Text(field.PrimaryKey()), field.Integer(field.PrimaryKey())} {
			s := schema.New("Code").Field("code", pk).Field("v", field.Text()).MustBuild()
			r := record.NewType(s, nil).MustNew(map[string]any{"v": "x"})

			_, _, err := buildInsert(r)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "code", ve.Field)
			assert.Equal(t, "primary key has no value", ve.Reason)
		}
	})

	t.Run("generator errors are returned", func(t *testing.T) {
		s := schema.New("Ticket").
			Field("code", field.Text(field.DefaultGenerator("broken", field.GeneratorFunc(func(field.Values) (any, error) {
				return nil, errors.New("exhausted")
			})))).
			MustBuild()
		_, _, err := buildInsert(record.NewType(s, nil).MustNew(nil))
		assert.ErrorContains(t, err, "exhausted")
	})
}

func TestBuildUpdate(t *testing.T) {
	calls := 0
	typ := newPlayerType(&calls)

	t.Run("every field except the primary key", func(t *testing.T) {
		r, err := typ.Load(map[string]any{"id": int64(3), "name": "dee", "bio": "hi"})
		require.NoError(t, err)

		stmt, err := buildUpdate(r)
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "player" SET "name" = ?, "sex" = ?, "token" = ?, "bio" = ? WHERE "id" = ?`, stmt.SQL)
		assert.Equal(t, []any{"dee", nil, nil, "hi", int64(3)}, stmt.Args)
	})

	t.Run("unset fields are written as null", func(t *testing.T) {
		r, err := typ.Load(map[string]any{"id": int64(4), "name": "dia", "sex": "f", "token": "t", "bio": "hi"})
		require.NoError(t, err)
		r.Unset("bio")

		stmt, err := buildUpdate(r)
		require.NoError(t, err)
		assert.Equal(t, []any{"dia", "f", "t", nil, int64(4)}, stmt.Args)
	})

	t.Run("auto timestamps", func(t *testing.T) {
		r, err := newPlayerType(&calls, schema.AutoTimestamps()).Load(map[string]any{
			"id": int64(1), "name": "eve", "created_at": "2024-01-01 00:00:00",
		})
		require.NoError(t, err)

		stmt, err := buildUpdate(r)
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "player" SET "name" = ?, "sex" = ?, "token" = ?, "bio" = ?, "updated_at" = CURRENT_TIMESTAMP WHERE "id" = ?`, stmt.SQL)
		assert.Equal(t, []any{"eve", nil, nil, nil, int64(1)}, stmt.Args)
	})

	t.Run("nothing to update", func(t *testing.T) {
		s := schema.New("Tag").Field("id", field.Integer(field.PrimaryKey())).MustBuild()
		r, err := record.NewType(s, nil).Load(map[string]any{"id": int64(3)})
		require.NoError(t, err)
		_, err = buildUpdate(r)
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("only the timestamp to update", func(t *testing.T) {
		s := schema.New("Tag", schema.AutoTimestamps()).Field("id", field.Integer(field.PrimaryKey())).MustBuild()
		r, err := record.NewType(s, nil).Load(map[string]any{"id": int64(3)})
		require.NoError(t, err)

		stmt, err := buildUpdate(r)
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "tag" SET "updated_at" = CURRENT_TIMESTAMP WHERE "id" = ?`, stmt.SQL)
		assert.Equal(t, []any{int64(3)}, stmt.Args)
	})

	t.Run("missing primary key value", func(t *testing.T) {
		_, err := buildUpdate(typ.MustNew(map[string]any{"name": "fay"}))
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("type without primary key", func(t *testing.T) {
		s := schema.New("Note").Field("body", field.Text()).MustBuild()
		r := record.NewType(s, nil).MustNew(map[string]any{"body": "x"})
		_, err := buildUpdate(r)
		assert.True(t, errors.Is(err, ErrNoPrimaryKey))
	})
}

func TestBuildDelete(t *testing.T) {
	calls := 0
	r, err := newPlayerType(&calls).Load(map[string]any{"id": int64(9)})
	require.NoError(t, err)

	stmt, err := buildDelete(r)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "player" WHERE "id" = ?`, stmt.SQL)
	assert.Equal(t, []any{int64(9)}, stmt.Args)

	s := schema.New("Match", schema.PrimaryKey("code")).Field("code", field.Text()).MustBuild()
	stmt, err = buildDelete(record.NewType(s, nil).MustNew(map[string]any{"code": "abc"}))
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "match" WHERE "code" = ?`, stmt.SQL)
}
