package mock

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	dbsMu sync.Mutex
	dbs   = make(map[string]*Db)
)

// Table pairs a table name with the gorm model that backs it.
type Table struct {
	Name  string
	Model any
}

type Db struct {
	DbConn *gorm.DB
	name   string
	tables []Table
}

// NewDb returns the shared in-memory database registered under name, opening
// and migrating it on first use. Tables must be listed parents first.
func NewDb(name string, tables []Table) *Db {
	dbsMu.Lock()
	defer dbsMu.Unlock()

	if existing, ok := dbs[name]; ok {
		return existing
	}

	d := open(name, tables)
	dbs[name] = d
	return d
}

func open(name string, tables []Table) *Db {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	dbSQL, err := sql.Open("sqlite", dsn)
	if err != nil {
		panic(err)
	}

	dbSQL.SetMaxOpenConns(1)

	dbConn, err := gorm.Open(sqlite.Dialector{Conn: dbSQL}, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		panic("failed to connect to database. err: " + err.Error())
	}

	newDbMock := &Db{
		DbConn: dbConn,
		name:   name,
		tables: tables,
	}

	if err := newDbMock.init(); err != nil {
		panic(fmt.Sprintf("failed to migrate database %s. err: %s", name, err.Error()))
	}

	return newDbMock
}

func (d *Db) init() error {
	models := make([]any, 0, len(d.tables))
	for _, table := range d.tables {
		models = append(models, table.Model)
	}

	if err := d.DbConn.AutoMigrate(models...); err != nil {
		return err
	}

	for _, model := range models {
		if !d.DbConn.Migrator().HasTable(model) {
			return fmt.Errorf("table for model %T was not created", model)
		}
	}

	return nil
}

// ClearDB deletes every row, children first, and resets the id sequences.
func (d *Db) ClearDB() error {
	for i := len(d.tables) - 1; i >= 0; i-- {
		table := d.tables[i]

		err := d.DbConn.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table.Model).Error
		if err != nil {
			return fmt.Errorf("failed to clear %s.%s: %w", d.name, table.Name, err)
		}

		// sqlite_sequence only exists once an AUTOINCREMENT row was written.
		_ = d.DbConn.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table.Name).Error
	}

	return nil
}

func (d *Db) GetModel(table string) (any, bool) {
	for _, t := range d.tables {
		if t.Name == table {
			return t.Model, true
		}
	}
	return nil, false
}
