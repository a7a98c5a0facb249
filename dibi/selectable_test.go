package dibi_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbnauticus/dibi-go/dibi"
	. "github.com/orbnauticus/dibi-go/testutil/enginewrapper" //nolint:revive
)

func givenOrders(t *testing.T, w *Wrapper, rows ...map[string]any) *dibi.Table {
	t.Helper()

	table := givenSavedOrdersTable(t, w)
	for _, row := range rows {
		_, err := table.Insert(context.Background(), row)
		require.NoError(t, err)
	}

	return table
}

func fruitBasket() []map[string]any {
	return []map[string]any{
		{"item": "apple", "quantity": 3, "price": 0.5},
		{"item": "pear", "quantity": 1, "price": 0.75},
		{"item": "apple", "quantity": 5, "price": 0.5},
		{"item": "plum", "quantity": nil, "price": 0.25},
	}
}

func Test_Table_SelectAll_ShouldReturnEveryExplicitColumn(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := Open(t)

	// arrange
	table := givenOrders(t, w, fruitBasket()...)

	// act
	rows, err := table.SelectAll(ctx)

	// assert
	require.NoError(t, err)
	assert.ElementsMatch(t, []dibi.Row{
		{"apple", int64(3), 0.5},
		{"pear", int64(1), 0.75},
		{"apple", int64(5), 0.5},
		{"plum", nil, 0.25},
	}, rows)
}

func Test_Filter_Select_ShouldRestrictRows(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := Open(t)

	// arrange
	table := givenOrders(t, w, fruitBasket()...)
	item, _ := table.Column("item")
	quantity, _ := table.Column("quantity")
	price, _ := table.Column("price")

	tests := []struct {
		name     string
		filter   *dibi.Filter
		expected []any
	}{
		{"equal", item.Eq("pear"), []any{"pear"}},
		{"not equal", item.Ne("apple"), []any{"pear", "plum"}},
		{"is null", quantity.Eq(nil), []any{"plum"}},
		{"is not null and greater", quantity.Ne(nil).And(quantity.Gt(2)), []any{"apple", "apple"}},
		{"or", price.Lt(0.5).Or(price.Ge(0.75)), []any{"pear", "plum"}},
		{"not", item.Eq("apple").Not(), []any{"pear", "plum"}},
		{"arithmetic", quantity.Mul(price).Ge(2.5), []any{"apple"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// act
			rows, err := tt.filter.SelectAll(ctx, dibi.Columns(item))

			// assert
			require.NoError(t, err)
			items := make([]any, len(rows))
			for i, row := range rows {
				items[i] = row[0]
			}
			assert.ElementsMatch(t, tt.expected, items)
		})
	}
}

func Test_Select_ShouldComputeAggregates(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := Open(t)

	// arrange
	table := givenOrders(t, w, fruitBasket()...)
	quantity, _ := table.Column("quantity")
	price, _ := table.Column("price")

	// act
	selection, err := table.Select(ctx, dibi.Columns(quantity.Sum(), quantity.Max(), quantity.Min(), quantity.Count(), price.Avg()))
	require.NoError(t, err)
	row, err := selection.One()

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(9), row[0])
	assert.Equal(t, int64(5), row[1])
	assert.Equal(t, int64(1), row[2])
	assert.Equal(t, int64(3), row[3])
	assert.InDelta(t, 0.5, row[4], 0.0001)
}

func Test_Select_WithDistinct_ShouldRemoveDuplicates(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := Open(t)

	// arrange
	table := givenOrders(t, w, fruitBasket()...)
	item, _ := table.Column("item")

	// act
	rows, err := table.SelectAll(ctx, dibi.Columns(item), dibi.Distinct())

	// assert
	require.NoError(t, err)
	assert.ElementsMatch(t, []dibi.Row{{"apple"}, {"pear"}, {"plum"}}, rows)
}

func Test_Selection_ShouldDescribeSelectedColumns(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := Open(t)

	// arrange
	table := givenOrders(t, w)

	// act
	selection, err := table.Select(ctx)
	require.NoError(t, err)
	defer func() { _ = selection.Close() }()

	// assert
	name := table.Name()
	assert.Equal(t, `<Selection("`+name+`"."item", "`+name+`"."quantity", "`+name+`"."price")>`, selection.String())
	assert.Len(t, selection.Columns(), 3)
}

func Test_Selection_One_ShouldReturnNilWithoutRows(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := Open(t)

	// arrange
	table := givenOrders(t, w)

	// act
	selection, err := table.Select(ctx)
	require.NoError(t, err)
	row, err := selection.One()

	// assert
	assert.NoError(t, err)
	assert.Nil(t, row)
	assert.False(t, selection.Next())
	assert.NoError(t, selection.Close())
}

func Test_Filter_Update_ShouldChangeMatchingRows(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := Open(t)

	// arrange
	table := givenOrders(t, w, fruitBasket()...)
	item, _ := table.Column("item")
	price, _ := table.Column("price")

	// act
	affected, err := item.Eq("apple").Update(ctx, map[string]any{"price": "0.6"})

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	rows, err := price.Eq(0.6).SelectAll(ctx, dibi.Columns(item))
	require.NoError(t, err)
	assert.Equal(t, []dibi.Row{{"apple"}, {"apple"}}, rows)
}

func Test_Table_Update_ShouldChangeEveryRow(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := Open(t)

	// arrange
	table := givenOrders(t, w, fruitBasket()...)

	// act
	affected, err := table.Update(ctx, map[string]any{"quantity": 0})
	noop, noopErr := table.Update(ctx, map[string]any{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(4), affected)
	assert.NoError(t, noopErr)
	assert.Equal(t, int64(0), noop)
}

func Test_Delete_ShouldRemoveRowsAndCountRowsShouldFollow(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := Open(t)

	// arrange
	table := givenOrders(t, w, fruitBasket()...)
	item, _ := table.Column("item")

	// act
	deleted, err := item.Eq("apple").Delete(ctx)
	require.NoError(t, err)
	remaining, countErr := table.CountRows(ctx)
	pears, pearErr := item.Eq("pear").CountRows(ctx)
	all, deleteAllErr := table.Delete(ctx)

	// assert
	assert.Equal(t, int64(2), deleted)
	assert.NoError(t, countErr)
	assert.Equal(t, int64(2), remaining)
	assert.NoError(t, pearErr)
	assert.Equal(t, int64(1), pears)
	assert.NoError(t, deleteAllErr)
	assert.Equal(t, int64(2), all)
}

func Test_Filter_ShouldJoinTablesItReferences(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := Open(t)

	// arrange
	customersName := UniqueTableName("customers")
	customers := w.DB.AddTable(customersName, dibi.WithPrimaryKey("id"))
	customers.AddColumn("name", dibi.Text)
	require.NoError(t, customers.Save(ctx, false))
	w.DropTables(t, customersName)

	orders := givenSavedOrdersTable(t, w)
	customerID, err := orders.AppendColumn(ctx, "customer", dibi.Integer)
	require.NoError(t, err)

	ada, err := customers.Insert(ctx, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	_, err = customers.Insert(ctx, map[string]any{"name": "Grace"})
	require.NoError(t, err)
	_, err = orders.Insert(ctx, map[string]any{"item": "tea", "quantity": 2, "customer": ada})
	require.NoError(t, err)

	join := customerID.Eq(customers.PrimaryKey())
	name, _ := customers.Column("name")
	item, _ := orders.Column("item")

	// act
	rows, err := join.SelectAll(ctx, dibi.Columns(name, item))
	_, updateErr := join.Update(ctx, map[string]any{"item": "coffee"})

	// assert
	require.NoError(t, err)
	assert.Equal(t, []dibi.Row{{"Ada", "tea"}}, rows)
	assert.ErrorIs(t, updateErr, dibi.ErrMultipleTables)
}

func Test_Select_ShouldClassifyMissingTable(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w := Open(t)

	// arrange
	table := givenOrders(t, w)
	require.NoError(t, table.Drop(ctx, false))

	// act
	_, err := table.SelectAll(ctx)

	// assert
	assert.ErrorIs(t, err, dibi.ErrNoSuchTable)
}
