// Package dibi provides a small database abstraction layer.
//
// A DB wraps a Driver and keeps the tables defined through it. Tables are described in Go
// (columns, datatypes, primary keys), created with Save, and queried through Filter expressions
// built from their columns. Drivers translate these definitions into the SQL dialect of a
// concrete backend and classify backend failures into the sentinel errors of this package.
//
// Usage:
//
//	drv, _ := driver.Open(ctx, "sqlite", driver.Parameters{"path": ":memory:"})
//	db := dibi.New(drv)
//
//	orders := db.AddTable("orders")
//	amount := orders.AddColumn("amount", dibi.Integer)
//	quantity := orders.AddColumn("quantity", dibi.Text)
//	_ = orders.Save(ctx, false)
//
//	_, _ = orders.Insert(ctx, map[string]any{"amount": 100, "quantity": 2})
//
//	rows, _ := amount.Eq(100).SelectAll(ctx, dibi.Columns(quantity))
//
// Every Table without an explicit primary key receives an implicit autoincrement column
// named "__id__" when it is saved. Implicit columns are not part of default selections.
package dibi
