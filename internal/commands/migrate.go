package commands

import (
	"attendance/sync/internal/pkg/repository/postgresql"
	"fmt"
	"log"

	"github.com/pkg/errors"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

type Scheme struct {
	Index       int
	Description string
	Query       string
}

var scheme = []Scheme{
	{
		Index:       1,
		Description: "CREATE TYPE \"attendance_status\" AS ENUM",
		Query: `
        CREATE TYPE "attendance_status" AS ENUM ('absent', 'in_progress', 'completed');`,
	},
	{
		Index:       2,
		Description: "Create table: users.",
		Query: `
        CREATE TABLE IF NOT EXISTS users (
            id serial primary key,
            full_name text not null,
            email text,
            phone text,
            password text not null,
            status bool default true,
            created_at timestamp default now(),
            created_by int references users(id),
            updated_at timestamp,
            updated_by int references users(id),
            deleted_at timestamp,
            deleted_by int references users(id)
        );`,
	},
	{
		Index:       3,
		Description: "Create table: employee_mapping.",
		Query: `
        CREATE TABLE IF NOT EXISTS employee_mapping (
            id serial primary key,
            vendor_emp_code text not null,
            user_id int not null references users(id),
            confidence float8 not null default 0,
            active bool not null default true,
            created_at timestamp default now()
        );`,
	},
	{
		Index:       4,
		Description: "Unique active mapping per vendor employee code.",
		Query: `
        CREATE UNIQUE INDEX IF NOT EXISTS employee_mapping_code_active_idx
            ON employee_mapping (vendor_emp_code) WHERE active;`,
	},
	{
		Index:       5,
		Description: "Create table: attendance.",
		Query: `
        CREATE TABLE IF NOT EXISTS attendance (
            id serial primary key,
            user_id int not null references users(id),
            work_day date not null,
            check_in_at timestamp,
            check_out_at timestamp,
            lunch_break_start timestamp,
            lunch_break_end timestamp,
            total_work_minutes int,
            status attendance_status not null default 'absent',
            is_late bool not null default false,
            source text not null default 'sync',
            last_modified_by text,
            created_at timestamp default now(),
            created_by int references users(id),
            updated_at timestamp,
            updated_by int references users(id),
            deleted_at timestamp,
            deleted_by int references users(id),
            UNIQUE (user_id, work_day)
        );`,
	},
	{
		Index:       6,
		Description: "Create table: sync_cursors.",
		Query: `
        CREATE TABLE IF NOT EXISTS sync_cursors (
            stream_id text primary key,
            token text not null,
            last_sync_at timestamp not null default now()
        );`,
	},
	{
		Index:       7,
		Description: "Index attendance lookups by user and day.",
		Query: `
        CREATE INDEX IF NOT EXISTS attendance_work_day_idx ON attendance (work_day);`,
	},
}

// Migrate creates the scheme in the database.
func Migrate(db *postgresql.Database) {
	for _, s := range scheme {
		if _, err := db.Query(s.Query); err != nil {
			log.Fatalln("migrate error", err)
		}
	}
}

func MigrateUP(db *postgresql.Database) {
	var (
		version int
		dirty   bool
		er      *string
	)
	err := db.QueryRow("SELECT version, dirty, error FROM schema_migrations").Scan(&version, &dirty, &er)
	if err != nil {
		if err.Error() == `ERROR: relation "schema_migrations" does not exist (SQLSTATE=42P01)` {
			if _, err = db.Exec(`
				CREATE TABLE IF NOT EXISTS schema_migrations (version int not null, dirty bool not null, error text);
				DELETE FROM schema_migrations;
				INSERT INTO schema_migrations (version, dirty) values (0, false);
			`); err != nil {
				log.Fatalln("migrate schema_migrations create error", err)
			}
			version = 0
			dirty = false
		} else {
			log.Fatalln("migrate schema_migrations scan: ", err)
		}
	}

	if dirty {
		for _, v := range scheme {
			if v.Index == version {
				if _, err = db.Exec(v.Query); err != nil {
					if _, err = db.Exec(fmt.Sprintf(`UPDATE schema_migrations SET error = '%s'`, err.Error())); err != nil {
						log.Fatalln("migrate error", err)
					}
					log.Fatalln(fmt.Sprintf("migrate error version: %d", version), err)
				}
				if _, err = db.Exec(`UPDATE schema_migrations SET dirty = false, error = null`); err != nil {
					log.Fatalln("migrate error", err)
				}
			}
		}
	}

	for _, s := range scheme {
		if s.Index > version {
			if _, err = db.Exec(s.Query); err != nil {
				if _, err = db.Exec(fmt.Sprintf(`UPDATE schema_migrations SET error = '%s', version = %d, dirty = true`, err.Error(), s.Index)); err != nil {
					log.Fatalln("migrate error", err)
				}
				log.Fatalln(fmt.Sprintf("migrate error version: %d", s.Index), err)
			}
			if _, err = db.Exec(fmt.Sprintf(`UPDATE schema_migrations SET version = %d`, s.Index)); err != nil {
				log.Fatalln("migrate error", err)
			}
		}
	}
}
