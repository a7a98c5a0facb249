package dibi

// DB holds a Driver together with the tables defined through it.
type DB struct {
	driver Driver
	tables *Collection[*Table]
}

// New creates a DB on top of driver.
func New(driver Driver) *DB {
	return &DB{
		driver: driver,
		tables: NewCollection(func(t *Table) string { return t.name }),
	}
}

// Driver returns the underlying driver.
func (db *DB) Driver() Driver {
	return db.driver
}

// AddTable defines a table and stores it in the DB, replacing any table with the same name.
// Nothing is created in the database until Table.Save is called.
func (db *DB) AddTable(name string, options ...TableOption) *Table {
	t := &Table{
		db:      db,
		name:    name,
		columns: NewCollection(func(c *Column) string { return c.name }),
	}

	for _, option := range options {
		option(t)
	}

	return db.tables.Add(t, true)
}

// Table returns the table defined under name.
func (db *DB) Table(name string) (*Table, bool) {
	return db.tables.Get(name)
}

// Tables returns the defined tables in definition order.
func (db *DB) Tables() []*Table {
	return db.tables.Items()
}

// HasTable reports whether table itself is defined in the DB.
func (db *DB) HasTable(table *Table) bool {
	return db.tables.Contains(table)
}

// Close closes the driver.
func (db *DB) Close() error {
	return db.driver.Close()
}
