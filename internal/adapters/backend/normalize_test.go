package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lifeos/core/internal/domain/entities"
)

func TestNormalizeRecordBooleans(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	cases := []struct {
		value any
		want  bool
	}{
		{true, true},
		{false, false},
		{int64(1), true},
		{int64(0), false},
		{1, true},
		{float64(1), true},
		{float64(0), false},
		{"1", true},
		{"0", false},
		{"true", true},
		{"t", true},
		{"false", false},
		{[]byte("1"), true},
		{[]byte("0"), false},
	}
	for _, tc := range cases {
		rec := NormalizeRecord(entities.Record{"isRecurring": tc.value, "isTaskLinked": tc.value})
		assert.Equal(tc.want, rec["isRecurring"], "%#v", tc.value)
		assert.Equal(tc.want, rec["isTaskLinked"], "%#v", tc.value)
	}
}

func TestNormalizeRecordBytesAndNulls(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	rec := NormalizeRecord(entities.Record{
		"id":    []byte("t1"),
		"title": "kept",
		"color": nil,
	})

	assert.Equal("t1", rec["id"])
	assert.Equal("kept", rec["title"])
	_, present := rec["color"]
	assert.False(present)
}

func TestNormalizeRecordLeavesOtherFieldsAlone(t *testing.T) {
	t.Parallel()

	// Only the known boolean fields are coerced; a title of "1" stays a string.
	rec := NormalizeRecord(entities.Record{"title": "1", "priority": "High"})
	assert.Equal(t, "1", rec["title"])
	assert.Equal(t, "High", rec["priority"])
}

func TestUnionColumns(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	cols, err := unionColumns([]entities.Record{
		{"id": "1", "title": "a"},
		{"id": "2", "title": "b", "color": "#fff"},
		{"id": "3", "dueDate": "2026-01-15"},
	})
	assert.Nil(err)
	assert.Equal([]string{"color", "dueDate", "id", "title"}, cols)
}

func TestUnionColumnsRejectsUnsafeNames(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	for _, bad := range []string{"drop table", `title"`, "a;b", "1col", ""} {
		_, err := unionColumns([]entities.Record{{"id": "1", bad: "x"}})
		assert.ErrorIs(err, entities.ErrInvalidColumnName, bad)
	}
}

func TestUnionColumnsEmptyPayload(t *testing.T) {
	t.Parallel()

	cols, err := unionColumns(nil)
	assert.Nil(t, err)
	assert.Empty(t, cols)
}
