package querybuilder

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// InsertModel starts an insert from a struct whose exported fields carry db tags.
func InsertModel(table string, model any) (*InsertBuilder, error) {
	cols, vals, err := modelFields(model)
	if err != nil {
		return nil, err
	}
	return InsertInto(table).Columns(cols...).Values(vals...), nil
}

// InsertModels builds one multi-row insert. Every model shares the column list
// of the first, which holds for a slice of one struct type.
func InsertModels[T any](table string, models []T) (*InsertBuilder, error) {
	if len(models) == 0 {
		return nil, errors.New("insert models are required")
	}

	b := InsertInto(table)
	for i, m := range models {
		cols, vals, err := modelFields(m)
		if err != nil {
			return nil, fmt.Errorf("model %d: %w", i, err)
		}
		if i == 0 {
			b.Columns(cols...)
		}
		b.Values(vals...)
	}
	return b, nil
}

// ColumnsOf lists the db-tagged columns of a struct in field order.
func ColumnsOf(model any) []string {
	cols, _, err := modelFields(model)
	if err != nil {
		return nil
	}
	return cols
}

func modelFields(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, errors.New("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be a struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, errors.New("model has no db columns")
	}
	return cols, vals, nil
}
