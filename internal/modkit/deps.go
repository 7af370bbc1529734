// Package modkit provides module wiring and core deps
package modkit

import (
	"tagtime/internal/modkit/repokit"
	"tagtime/internal/platform/config"
	"tagtime/internal/platform/logger"
	"tagtime/internal/platform/store"
)

// Deps holds the backends every module may draw on
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	DB  repokit.TxRunner
	CH  store.Clickhouse

	// Dialect names the backend behind DB so repos can pick dialect specific hooks
	Dialect store.Dialect
}

// FromStore copies the opened backends out of st
func FromStore(log logger.Logger, cfg config.Conf, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st != nil {
		d.DB, d.CH, d.Dialect = st.DB, st.CH, st.Dialect
	}
	return d
}

// HasAnalytics reports whether a ClickHouse sink is wired
func (d Deps) HasAnalytics() bool { return d.CH != nil }
