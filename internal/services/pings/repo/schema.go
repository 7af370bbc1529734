package repo

import "tagtime/internal/platform/store"

// Migrations is the ping log schema; every statement runs on postgres and sqlite
var Migrations = []store.Migration{
	{
		Version: 1,
		Name:    "pings",
		Stmts: []string{
			`CREATE TABLE pings (
				seed        BIGINT PRIMARY KEY,
				time_us     BIGINT NOT NULL,
				created_us  BIGINT NOT NULL,
				answered_us BIGINT
			)`,
			`CREATE INDEX pings_time_us ON pings (time_us)`,
			`CREATE TABLE tags (
				tag        TEXT PRIMARY KEY,
				created_us BIGINT NOT NULL
			)`,
			`CREATE TABLE ping_tags (
				seed BIGINT NOT NULL REFERENCES pings (seed),
				tag  TEXT NOT NULL REFERENCES tags (tag),
				PRIMARY KEY (seed, tag)
			)`,
			`CREATE INDEX ping_tags_tag ON ping_tags (tag)`,
		},
	},
	{
		Version: 2,
		Name:    "wake_lease",
		Stmts: []string{
			`CREATE TABLE wake_lease (
				id         INTEGER PRIMARY KEY,
				owner      TEXT NOT NULL,
				expires_us BIGINT NOT NULL
			)`,
		},
	},
}
