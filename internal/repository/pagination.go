package repository

import "fmt"

// ClampLimit applies the list default and ceiling.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// paginate appends OFFSET/LIMIT placeholders after the existing args.
func paginate(args *[]interface{}, skip, limit int) string {
	if skip < 0 {
		skip = 0
	}
	*args = append(*args, skip, ClampLimit(limit))
	return fmt.Sprintf(" OFFSET $%d LIMIT $%d", len(*args)-1, len(*args))
}
