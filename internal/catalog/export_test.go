package catalog

import "database/sql"

func bumpSchemaVersionForTest(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec("UPDATE schema_version SET version = version + 1")
	return err
}

// BumpSchemaVersion is exported for tests.
var BumpSchemaVersion = bumpSchemaVersionForTest
