package sqlite

import (
	"strconv"
	"strings"

	"github.com/mwantia/extio/errors"
)

// bindPositional rewrites "$N" placeholders into anonymous "?" parameters
// and orders params to match, so a parameter may be referenced repeatedly
// and out of order. Quoted text is left alone. Statements without "$N"
// placeholders are returned unchanged.
func bindPositional(op, statement string, params []any) (string, []any, error) {
	if !strings.Contains(statement, "$") {
		return statement, params, nil
	}

	var out strings.Builder
	var args []any
	var quote byte

	out.Grow(len(statement))
	for i := 0; i < len(statement); i++ {
		c := statement[i]

		if quote != 0 {
			out.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			quote = c
			out.WriteByte(c)
		case c == '$' && i+1 < len(statement) && isDigit(statement[i+1]):
			j := i + 1
			for j < len(statement) && isDigit(statement[j]) {
				j++
			}
			index, _ := strconv.Atoi(statement[i+1 : j])
			if index < 1 || index > len(params) {
				return "", nil, errors.InvalidArgument(op, "placeholder $%d has no parameter, %d given", index, len(params))
			}
			args = append(args, params[index-1])
			out.WriteByte('?')
			i = j - 1
		default:
			out.WriteByte(c)
		}
	}

	if args == nil {
		return statement, params, nil
	}
	return out.String(), args, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
