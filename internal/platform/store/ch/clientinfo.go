package ch

import (
	"os"
	"runtime"
	"strings"

	"tagtime/internal/core/version"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClientInfo tags our queries in system.query_log: product name at the build
// version, then the binary (api, prompter, cli), go version and host
func ClientInfo(name, role string) clickhouse.ClientInfo {
	bi := version.Info()
	if name = strings.TrimSpace(name); name == "" {
		name = bi.Service
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	rev := bi.Version
	if bi.Commit != "none" && len(bi.Commit) >= 7 {
		rev += "+" + bi.Commit[:7]
	}
	return clickhouse.ClientInfo{Products: []struct{ Name, Version string }{
		{Name: name, Version: rev},
		{Name: "role", Version: strings.TrimSpace(role)},
		{Name: "go", Version: runtime.Version()},
		{Name: "host", Version: host},
	}}
}
