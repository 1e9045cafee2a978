package data

import (
	"fmt"
	"strings"

	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// ParseSort normalizes the accepted sort argument forms into a
// [domain.Sort]:
//
//   - "-date title": space separated names, "-" prefix for descending order;
//   - "date", -1: a single name followed by its order;
//   - a [domain.Sort], a [D] or a map of name to order.
//
// Orders may be numbers (sign decides) or "asc"/"desc" strings.
func ParseSort(args ...any) (domain.Sort, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
	case 2:
		name, ok := args[0].(string)
		if !ok {
			return nil, sortError("sort key must be a string, got %T", args[0])
		}
		order, err := parseOrder(args[1])
		if err != nil {
			return nil, err
		}
		return domain.Sort{{Key: name, Order: order}}, nil
	default:
		return nil, sortError("too many sort arguments")
	}

	switch t := args[0].(type) {
	case nil:
		return nil, nil
	case domain.Sort:
		return t, nil
	case string:
		return parseSortString(t), nil
	}

	entries, ok := Entries(args[0])
	if !ok {
		return nil, sortError("unsupported sort expression %T", args[0])
	}
	res := make(domain.Sort, 0, len(entries))
	for _, e := range entries {
		order, err := parseOrder(e.Value)
		if err != nil {
			return nil, err
		}
		res = append(res, domain.SortName{Key: e.Key, Order: order})
	}
	return res, nil
}

func parseSortString(s string) domain.Sort {
	fields := strings.Fields(s)
	res := make(domain.Sort, 0, len(fields))
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "-"):
			res = append(res, domain.SortName{Key: f[1:], Order: -1})
		case strings.HasPrefix(f, "+"):
			res = append(res, domain.SortName{Key: f[1:], Order: 1})
		default:
			res = append(res, domain.SortName{Key: f, Order: 1})
		}
	}
	return res
}

func parseOrder(v any) (int64, error) {
	switch t := v.(type) {
	case string:
		switch strings.ToLower(t) {
		case "asc", "ascending", "1":
			return 1, nil
		case "desc", "descending", "-1":
			return -1, nil
		}
		return 0, sortError("invalid sort order %q", t)
	case int:
		return sign(float64(t))
	case int64:
		return sign(float64(t))
	case int32:
		return sign(float64(t))
	case float64:
		return sign(t)
	case float32:
		return sign(float64(t))
	}
	return 0, sortError("invalid sort order %v", v)
}

func sign(f float64) (int64, error) {
	switch {
	case f > 0:
		return 1, nil
	case f < 0:
		return -1, nil
	}
	return 0, sortError("sort order cannot be zero")
}

func sortError(format string, args ...any) error {
	return domain.ErrQueryCompile{Operator: "sort", Reason: fmt.Sprintf(format, args...)}
}
