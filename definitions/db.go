package definitions

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"

	"github.com/km3py/km3go/klog"
)

// DBConfig holds the connection parameters for the KM3NeT central
// database mirror holding the definition tables.
type DBConfig struct {
	User     string `json:"user"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Database string `json:"database"`
}

func ConnectToDatabase(cfg DBConfig) (*sqlx.DB, error) {
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type definitionRow struct {
	Name  string `db:"name"`
	Value int    `db:"value"`
}

// FromDB reads a definition table valid for the given run number and
// returns it as a name to value map, in the same shape as the compiled
// tables in this package. Tables are versioned by run range.
func FromDB(db *sqlx.DB, table string, runNumber int) (map[string]int, error) {
	query := fmt.Sprintf(
		"SELECT name, value FROM %s WHERE MinRun <= %d AND MaxRun >= %d",
		table, runNumber, runNumber)
	rows, err := db.Queryx(query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	defs := make(map[string]int)
	for rows.Next() {
		var row definitionRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		defs[row.Name] = row.Value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", table, err)
	}
	klog.Info(fmt.Sprintf("%d definitions read from %s", len(defs), table), "definitions")
	return defs, nil
}
