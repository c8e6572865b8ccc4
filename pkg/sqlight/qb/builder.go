package qb

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sllt/sqlight/pkg/sqlight"
)

var (
	// ErrUnsupportedOperator reports an unsupported operator in a where-condition.
	ErrUnsupportedOperator = errors.New("[builder] unsupported operator")

	errSplitEmptyKey       = errors.New("[builder] couldn't split a empty string")
	errEmptyWhere          = errors.New("[builder] where conditions cannot be empty")
	errEmptyInsertData     = errors.New("[builder] insert data cannot be empty")
	errEmptyUpdateData     = errors.New("[builder] update data cannot be empty")
	errInsertColumnsDiffer = errors.New("[builder] insert rows must share the same columns")
	errOrderByValueType    = errors.New(`[builder] the value of "_orderby" must be of string type`)
	errOrderByValueInvalid = errors.New(`[builder] the value of "_orderby" contains invalid expression`)
	errLimitValueType      = errors.New(`[builder] the value of "_limit" must be of uint or []uint type`)
	errLimitValueLength    = errors.New(`[builder] the value of "_limit" must contain one or two elements`)
	errInValueType         = errors.New(`[builder] the value of "in" must be of []any type`)
	errEmptyInCondition    = errors.New(`[builder] the value of "in" must contain at least one element`)
)

var supportedOperators = map[string]string{
	"=": "=", "<>": "<>", "!=": "!=", ">": ">", ">=": ">=", "<": "<", "<=": "<=",
	"in": " IN ", "like": " LIKE ",
}

const fieldPattern = "(?:[A-Za-z_][A-Za-z0-9_]*|`[^`]+`)"

var orderByPattern = regexp.MustCompile(`(?i)^` + fieldPattern + `(?:\s+(asc|desc))?$`)

var specialKeys = map[string]struct{}{
	"_orderby": {},
	"_limit":   {},
}

// BuildSelect builds a SELECT statement for table.
//
// Supported operators in where keys: =, <>, !=, >, >=, <, <=, in, like; a key
// without an operator means =. Special keys: _orderby (a comma-separated field
// list with optional asc/desc) and _limit (uint, or []uint{offset, count}).
// A nil selectField selects *.
func BuildSelect(table string, where map[string]any, selectField []string) (*sqlight.Sql, []any, error) {
	fields := "*"
	if len(selectField) > 0 {
		fields = strings.Join(selectField, ",")
	}

	cond, vals, err := buildConditions(where)
	if err != nil {
		return nil, nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", fields, table)
	if cond != "" {
		query += " WHERE " + cond
	}

	if raw, ok := where["_orderby"]; ok {
		orderBy, err := parseOrderBy(raw)
		if err != nil {
			return nil, nil, err
		}

		query += " ORDER BY " + orderBy
	}

	if raw, ok := where["_limit"]; ok {
		clause, limitVals, err := parseLimit(raw)
		if err != nil {
			return nil, nil, err
		}

		query += clause
		vals = append(vals, limitVals...)
	}

	return sqlight.Raw(query), vals, nil
}

// BuildInsert builds a multi-row INSERT statement. Every row must provide the
// same set of columns.
func BuildInsert(table string, data []map[string]any) (*sqlight.Sql, []any, error) {
	if len(data) == 0 {
		return nil, nil, errEmptyInsertData
	}

	columns := make([]string, 0, len(data[0]))
	for c := range data[0] {
		columns = append(columns, c)
	}

	sort.Strings(columns)

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	groups := make([]string, 0, len(data))
	vals := make([]any, 0, len(data)*len(columns))

	for _, row := range data {
		if len(row) != len(columns) {
			return nil, nil, errInsertColumnsDiffer
		}

		for _, c := range columns {
			v, ok := row[c]
			if !ok {
				return nil, nil, errInsertColumnsDiffer
			}

			vals = append(vals, v)
		}

		groups = append(groups, placeholder)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(columns, ","), strings.Join(groups, ","))

	return sqlight.Raw(query), vals, nil
}

// BuildUpdate builds an UPDATE statement. The where map is required: updating
// an entire table must be written by hand.
func BuildUpdate(table string, where, update map[string]any) (*sqlight.Sql, []any, error) {
	if len(update) == 0 {
		return nil, nil, errEmptyUpdateData
	}

	cond, condVals, err := buildConditions(where)
	if err != nil {
		return nil, nil, err
	}

	if cond == "" {
		return nil, nil, errEmptyWhere
	}

	columns := make([]string, 0, len(update))
	for c := range update {
		columns = append(columns, c)
	}

	sort.Strings(columns)

	sets := make([]string, 0, len(columns))
	vals := make([]any, 0, len(columns)+len(condVals))

	for _, c := range columns {
		sets = append(sets, c+"=?")
		vals = append(vals, update[c])
	}

	vals = append(vals, condVals...)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ","), cond)

	return sqlight.Raw(query), vals, nil
}

// BuildDelete builds a DELETE statement. The where map is required: deleting
// an entire table must be written by hand.
func BuildDelete(table string, where map[string]any) (*sqlight.Sql, []any, error) {
	cond, vals, err := buildConditions(where)
	if err != nil {
		return nil, nil, err
	}

	if cond == "" {
		return nil, nil, errEmptyWhere
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", table, cond)

	return sqlight.Raw(query), vals, nil
}

func buildConditions(where map[string]any) (string, []any, error) {
	keys := make([]string, 0, len(where))

	for k := range where {
		if _, ok := specialKeys[k]; ok {
			continue
		}

		keys = append(keys, k)
	}

	if len(keys) == 0 {
		return "", nil, nil
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	vals := make([]any, 0, len(keys))

	for _, key := range keys {
		field, op, err := splitKey(key)
		if err != nil {
			return "", nil, err
		}

		val := where[key]

		if op == "in" {
			clause, inVals, err := buildIn(field, val)
			if err != nil {
				return "", nil, err
			}

			parts = append(parts, clause)
			vals = append(vals, inVals...)

			continue
		}

		parts = append(parts, field+supportedOperators[op]+"?")
		vals = append(vals, val)
	}

	return "(" + strings.Join(parts, " AND ") + ")", vals, nil
}

func buildIn(field string, val any) (string, []any, error) {
	vals, ok := val.([]any)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", errInValueType, field)
	}

	if len(vals) == 0 {
		return "", nil, fmt.Errorf("%w: %s", errEmptyInCondition, field)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(vals)), ",")

	return field + " IN (" + placeholders + ")", vals, nil
}

func splitKey(key string) (field, op string, err error) {
	parts := strings.Fields(key)

	switch len(parts) {
	case 0:
		return "", "", errSplitEmptyKey
	case 1:
		return parts[0], "=", nil
	case 2:
		op = strings.ToLower(parts[1])
		if _, ok := supportedOperators[op]; !ok {
			return "", "", fmt.Errorf("%w: %s", ErrUnsupportedOperator, parts[1])
		}

		return parts[0], op, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedOperator, key)
	}
}

func parseOrderBy(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", errOrderByValueType
	}

	terms := strings.Split(s, ",")
	for _, term := range terms {
		if !orderByPattern.MatchString(strings.TrimSpace(term)) {
			return "", fmt.Errorf("%w: %s", errOrderByValueInvalid, term)
		}
	}

	return s, nil
}

func parseLimit(raw any) (string, []any, error) {
	switch v := raw.(type) {
	case uint:
		return " LIMIT ?", []any{v}, nil
	case []uint:
		switch len(v) {
		case 1:
			return " LIMIT ?", []any{v[0]}, nil
		case 2:
			// [offset, count], matching the engine's LIMIT count OFFSET offset.
			return " LIMIT ? OFFSET ?", []any{v[1], v[0]}, nil
		default:
			return "", nil, errLimitValueLength
		}
	default:
		return "", nil, errLimitValueType
	}
}
