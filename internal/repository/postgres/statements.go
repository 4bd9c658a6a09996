package postgres

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
)

const (
	dialectPostgres = "postgres"

	tableItems     = "items"
	tableItemType  = "item_type"
	tableItemLease = "item_lease"

	colID         = "id"
	colBrand      = "brand"
	colFee        = "fee"
	colTypeID     = "type_id"
	colName       = "name"
	colLeaseStart = "lease_start"
	colLeaseEnd   = "lease_end"
	colClientID   = "client_id"
	colItemID     = "item_id"
)

// Names the statements are prepared under on the session.
const (
	stmtFindRentableItems         = "find_rentable_items"
	stmtFindActiveLeasesForClient = "find_active_leases_for_client"
	stmtFindActiveLeaseForItem    = "find_active_lease_for_item"
	stmtCreateLease               = "create_lease"
	stmtTerminateLease            = "terminate_lease"
)

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

type statement struct {
	name  string
	query string
	// args is the number of placeholders the query binds.
	args int
}

// buildStatements renders the fixed statement set. Placeholder values passed
// to goqu only shape the SQL; real arguments are bound at execution.
func buildStatements() ([]statement, error) {
	builders := []struct {
		name  string
		args  int
		build func(goqu.DialectWrapper) sqlBuilder
	}{
		{stmtFindRentableItems, 1, findRentableItemsSQL},
		{stmtFindActiveLeasesForClient, 1, activeLeasesSQL(colClientID)},
		{stmtFindActiveLeaseForItem, 1, activeLeasesSQL(colItemID)},
		{stmtCreateLease, 2, createLeaseSQL},
		{stmtTerminateLease, 2, terminateLeaseSQL},
	}

	dialect := goqu.Dialect(dialectPostgres)
	stmts := make([]statement, 0, len(builders))
	for _, b := range builders {
		query, params, err := b.build(dialect).ToSQL()
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", b.name, err)
		}
		if len(params) != b.args {
			return nil, fmt.Errorf("building %s: %d placeholders, want %d", b.name, len(params), b.args)
		}
		stmts = append(stmts, statement{name: b.name, query: query, args: b.args})
	}
	return stmts, nil
}

// findRentableItemsSQL selects items of the named type that no open lease references.
// $1 = type name.
func findRentableItemsSQL(d goqu.DialectWrapper) sqlBuilder {
	activeItems := d.From(tableItemLease).
		Select(goqu.C(colItemID)).
		Distinct().
		Where(goqu.C(colLeaseEnd).IsNull())

	return d.From(tableItems).
		Prepared(true).
		Select(
			goqu.T(tableItems).Col(colID),
			goqu.T(tableItems).Col(colBrand),
			goqu.T(tableItems).Col(colFee),
		).
		InnerJoin(
			goqu.T(tableItemType),
			goqu.On(goqu.T(tableItems).Col(colTypeID).Eq(goqu.T(tableItemType).Col(colID))),
		).
		Where(
			goqu.T(tableItemType).Col(colName).Eq(""),
			goqu.T(tableItems).Col(colID).NotIn(activeItems),
		).
		Order(goqu.T(tableItems).Col(colID).Asc())
}

// activeLeasesSQL selects open leases filtered by one column and locks them.
// $1 = value of filterCol.
func activeLeasesSQL(filterCol string) func(goqu.DialectWrapper) sqlBuilder {
	return func(d goqu.DialectWrapper) sqlBuilder {
		return d.From(tableItemLease).
			Prepared(true).
			Select(colID, colItemID, colClientID, colLeaseStart, colLeaseEnd).
			Where(
				goqu.C(filterCol).Eq(0),
				goqu.C(colLeaseEnd).IsNull(),
			).
			Order(goqu.C(colID).Asc()).
			ForUpdate(exp.Wait)
	}
}

// createLeaseSQL opens a lease starting now. $1 = client, $2 = item.
// Prepared mode turns a nil value into a placeholder, so the open end is a
// literal.
func createLeaseSQL(d goqu.DialectWrapper) sqlBuilder {
	return d.Insert(tableItemLease).
		Prepared(true).
		Cols(colLeaseStart, colLeaseEnd, colClientID, colItemID).
		Vals(goqu.Vals{goqu.L("NOW()"), goqu.L("NULL"), 0, 0})
}

// terminateLeaseSQL closes the open lease of a client on an item.
// $1 = client, $2 = item.
func terminateLeaseSQL(d goqu.DialectWrapper) sqlBuilder {
	return d.Update(tableItemLease).
		Prepared(true).
		Set(goqu.Record{colLeaseEnd: goqu.L("NOW()")}).
		Where(
			goqu.C(colClientID).Eq(0),
			goqu.C(colItemID).Eq(0),
			goqu.C(colLeaseEnd).IsNull(),
		)
}
