package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hagwon/portal/core"
	"github.com/hagwon/portal/core/score"
)

var (
	orderingParam = "ordering"
	tieParam      = "tie"
	dateParam     = "test_date"

	dateLayout = "2006-01-02"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindTiePolicy maps the "tie" query param to a ranking tie policy;
// the default keeps distinct sequential ranks for equal totals.
func bindTiePolicy(ctx echo.Context) (score.TiePolicy, error) {
	switch ctx.QueryParam(tieParam) {
	case "", "ordinal":
		return score.TiePolicyOrdinal, nil
	case "dense":
		return score.TiePolicyDense, nil
	default:
		return 0, core.NewValidationError(nil, core.FieldError{Field: tieParam, Error: "must be one of: ordinal, dense"})
	}
}

// bindTestDate parses the "test_date" query param as YYYY-MM-DD.
func bindTestDate(ctx echo.Context, required bool) (time.Time, error) {
	val := ctx.QueryParam(dateParam)
	if val == "" {
		if required {
			return time.Time{}, core.RequiredFieldError(dateParam)
		}
		return time.Time{}, nil
	}
	date, err := time.Parse(dateLayout, val)
	if err != nil {
		return time.Time{}, core.NewValidationError(errors.Wrap(err, "parsing test_date"),
			core.FieldError{Field: dateParam, Error: "must be a date formatted as " + dateLayout})
	}
	return date, nil
}
