package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/safing/rpsldb/info"
)

func writeInfoMetric(w io.Writer) {
	meta := info.GetInfo()
	fmt.Fprintf(w,
		"rpsldb_info{version=%q,schema=%q,storages=%q,commit=%q,build_time=%q,platform=%q,go_version=%q} 1\n",
		checkUnknown(info.Version()),
		checkUnknown(meta.Schema),
		strings.Join(meta.Storages, ","),
		checkUnknown(meta.Commit),
		checkUnknown(meta.BuildTime),
		meta.Platform,
		meta.GoVersion,
	)
}

func checkUnknown(s string) string {
	if s == "" || strings.Contains(s, "unknown") {
		return "unknown"
	}
	return s
}
