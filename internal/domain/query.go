package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter is one key:value condition of a list query.
// Exact is set for keys ending in _id; other keys match case-insensitive substrings.
type Filter struct {
	Field string
	Value string
	Exact bool
}

// Order is one sort clause of a list query.
type Order struct {
	Field string
	Desc  bool
}

// ListQuery is the parsed form of the listing DSL.
type ListQuery struct {
	Filters []Filter
	Orders  []Order
	Limit   int
	// From and To form an inclusive row range; applied only when both are set.
	From *int
	To   *int
}

// ParseListQuery parses the filter/order DSL and pagination parameters.
//
//	filter: project_id:3;name:cat
//	order:  created_at:desc;name:asc
func ParseListQuery(filter, order, limit, from, to string) (ListQuery, error) {
	var q ListQuery

	for _, part := range splitNonEmpty(filter) {
		key, value, ok := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return ListQuery{}, fmt.Errorf("%w: malformed filter %q", ErrValidation, part)
		}
		q.Filters = append(q.Filters, Filter{
			Field: key,
			Value: value,
			Exact: strings.HasSuffix(key, "_id"),
		})
	}

	for _, part := range splitNonEmpty(order) {
		key, dir, _ := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			return ListQuery{}, fmt.Errorf("%w: malformed order %q", ErrValidation, part)
		}
		q.Orders = append(q.Orders, Order{
			Field: key,
			// anything but an explicit "asc" sorts descending
			Desc: strings.ToLower(strings.TrimSpace(dir)) != "asc",
		})
	}

	var err error
	if q.Limit, err = parseOptionalInt("limit", limit); err != nil {
		return ListQuery{}, err
	}

	fromN, err := parseOptionalInt("from", from)
	if err != nil {
		return ListQuery{}, err
	}
	toN, err := parseOptionalInt("to", to)
	if err != nil {
		return ListQuery{}, err
	}
	if from != "" && to != "" {
		if toN < fromN {
			return ListQuery{}, fmt.Errorf("%w: range to must not be before from", ErrValidation)
		}
		q.From, q.To = &fromN, &toN
	}

	return q, nil
}

func splitNonEmpty(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, ";") {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func parseOptionalInt(name, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrValidation, name)
	}
	return n, nil
}
