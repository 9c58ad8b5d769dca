// Package migrate holds the SQL files that make up the schema. Every file is
// idempotent and all of them are run, in name order, each time the bot starts.
package migrate

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed *.sql
var f embed.FS

// Up executes every embedded migration against db
func Up(db *sqlx.DB) error {
	ups, err := f.ReadDir(".")
	if err != nil {
		return fmt.Errorf("error reading migration dir: %s", err)
	}
	sort.Slice(ups, func(i, j int) bool { return ups[i].Name() < ups[j].Name() })

	for _, up := range ups {
		if up.IsDir() {
			continue
		}

		if !strings.HasSuffix(up.Name(), "sql") {
			continue
		}

		upBytes, err := f.ReadFile(up.Name())
		if err != nil {
			return fmt.Errorf("error reading up file: %s", err)
		}

		_, err = db.Exec(string(upBytes))
		if err != nil {
			return fmt.Errorf("error executing up query for file %s: %s", up.Name(), err)
		}
	}

	return nil
}
