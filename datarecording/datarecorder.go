// Package datarecording stores simulation results in a SQLite database, one
// database per run.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data.
type DataRecorder interface {
	// CreateTable creates a new table shaped like the sample entry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers one entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close()
}

// New creates a DataRecorder backed by a SQLite file at path + ".sqlite3".
// An empty path picks a run-unique name.
func New(path string) DataRecorder {
	if path == "" {
		path = "cachesim_run_" + xid.New().String()
	}

	w := &sqliteWriter{
		dbName:    path,
		batchSize: 10000,
		buffers:   make(map[string]*tableBuffer),
	}

	w.init()

	atexit.Register(func() { w.Flush() })

	return w
}

type tableBuffer struct {
	columns []string
	entries []any
}

type sqliteWriter struct {
	db *sql.DB

	dbName      string
	batchSize   int
	buffers     map[string]*tableBuffer
	numBuffered int
}

func (w *sqliteWriter) init() {
	filename := w.dbName + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	w.db = db

	fmt.Fprintf(os.Stderr, "Recording run into %s\n", filename)
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	columns := structs.Names(sampleEntry)

	createSQL := "CREATE TABLE " + tableName +
		" (\n\t" + strings.Join(columns, ",\n\t") + "\n);"
	w.mustExecute(createSQL)

	w.buffers[tableName] = &tableBuffer{columns: columns}
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	buffer, exists := w.buffers[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	buffer.entries = append(buffer.entries, entry)

	w.numBuffered++
	if w.numBuffered >= w.batchSize {
		w.Flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	tables := make([]string, 0, len(w.buffers))
	for name := range w.buffers {
		tables = append(tables, name)
	}

	return tables
}

func (w *sqliteWriter) Flush() {
	if w.numBuffered == 0 {
		return
	}

	w.mustExecute("BEGIN TRANSACTION")
	defer w.mustExecute("COMMIT TRANSACTION")

	for tableName, buffer := range w.buffers {
		if len(buffer.entries) == 0 {
			continue
		}

		w.flushTable(tableName, buffer)
	}

	w.numBuffered = 0
}

func (w *sqliteWriter) flushTable(tableName string, buffer *tableBuffer) {
	placeholders := make([]string, len(buffer.columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	insertSQL := "INSERT INTO " + tableName +
		" VALUES (" + strings.Join(placeholders, ", ") + ")"

	stmt, err := w.db.Prepare(insertSQL)
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, entry := range buffer.entries {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			panic(err)
		}
	}

	buffer.entries = nil
}

func (w *sqliteWriter) Close() {
	w.Flush()

	if err := w.db.Close(); err != nil {
		panic(err)
	}
}

func (w *sqliteWriter) mustExecute(query string) sql.Result {
	res, err := w.db.Exec(query)
	if err != nil {
		panic(fmt.Errorf("failed to execute %q: %w", query, err))
	}

	return res
}
