package backend

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/lifeos/core/internal/domain/entities"
)

// booleanFields are the record fields known to be booleans. MySQL hands them
// back as 0/1 and PostgREST clients may produce float64; GET must always yield
// real true/false.
var booleanFields = map[string]bool{
	"isRecurring":  true,
	"isTaskLinked": true,
}

var columnNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NormalizeRecord converts driver-specific scan values into plain JSON-ready
// ones: []byte becomes string, known boolean fields become bool, and NULL
// columns are dropped so relational rows round-trip like documents.
func NormalizeRecord(rec entities.Record) entities.Record {
	out := make(entities.Record, len(rec))
	for k, v := range rec {
		if v == nil {
			continue
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		if booleanFields[k] {
			v = toBool(v)
		}
		out[k] = v
	}
	return out
}

func toBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x == "1" || x == "true" || x == "t"
	default:
		return false
	}
}

// unionColumns derives the relational column set from every record in the
// payload, not just the first, so mixed shapes (records with omitted optional
// fields) survive a replace-all. The result is sorted for a deterministic
// table layout; names are validated because they end up in DDL.
func unionColumns(records []entities.Record) ([]string, error) {
	seen := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			if !columnNamePattern.MatchString(k) {
				return nil, fmt.Errorf("%w: %q", entities.ErrInvalidColumnName, k)
			}
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols, nil
}
