package boiledrepos

import (
	"github.com/volatiletech/sqlboiler/v4/drivers"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
	"github.com/volatiletech/strmangle"

	"github.com/studyfocus/focus/core"
)

// psqlDialect mirrors the dialect generated models use for postgres.
var psqlDialect = drivers.Dialect{
	LQ: '"',
	RQ: '"',

	UseIndexPlaceholders: true,
	UseSchema:            false,
	UseDefaultKeyword:    true,
	UseAutoColumns:       false,
}

// newQuery builds a postgres query from mods without generated models.
func newQuery(mods ...qm.QueryMod) *queries.Query {
	q := &queries.Query{}
	queries.SetDialect(q, &psqlDialect)
	qm.Apply(q, mods...)
	return q
}

// orderBy quotes every ordering field ("table.column") and returns the ORDER BY mod.
func orderBy(ordering []core.DBOrdering) qm.QueryMod {
	quoted := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		ord.Field = strmangle.IdentQuote(psqlDialect.LQ, psqlDialect.RQ, ord.Field)
		quoted = append(quoted, ord)
	}
	return qm.OrderBy(core.OrderByClause(quoted))
}
