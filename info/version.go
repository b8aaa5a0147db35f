package info

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

var (
	name        = "rpsldb"
	version     = "dev build"
	buildSource = "[source unknown]"
	buildTime   = "[build time unknown]"
	license     = "[license unknown]"

	schema   string
	storages []string
	metaLock sync.Mutex

	buildSettings     map[string]string
	loadBuildSettings sync.Once
)

// Info describes the running build and the keyspace layout it reads and writes.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	License string `json:"license"`

	Schema   string   `json:"schema,omitempty"`
	Storages []string `json:"storages,omitempty"`

	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Source    string `json:"source"`
	BuildTime string `json:"build_time"`

	Commit     string `json:"commit"`
	CommitTime string `json:"commit_time"`
	Dirty      bool   `json:"dirty"`
}

// Set sets meta information via the main routine. This should be the first thing your program calls.
func Set(setName string, setVersion string, setLicenseName string) {
	metaLock.Lock()
	defer metaLock.Unlock()

	if setName != "" {
		name = setName
	}
	if setVersion != "" {
		version = setVersion
	}
	if setLicenseName != "" {
		license = setLicenseName
	}
}

// SetSchema records the schema version of the keyspace and the storage
// backends compiled into the program.
func SetSchema(schemaVersion string, storageTypes []string) {
	metaLock.Lock()
	defer metaLock.Unlock()

	schema = schemaVersion
	storages = append([]string(nil), storageTypes...)
}

// GetInfo returns all the meta information about the program.
func GetInfo() *Info {
	loadBuildSettings.Do(func() {
		buildSettings = make(map[string]string)
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range buildInfo.Settings {
				buildSettings[setting.Key] = setting.Value
			}
		}
	})

	metaLock.Lock()
	defer metaLock.Unlock()

	meta := &Info{
		Name:       name,
		Version:    version,
		License:    license,
		Schema:     schema,
		Storages:   append([]string(nil), storages...),
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		Source:     buildSource,
		BuildTime:  buildTime,
		Commit:     buildSettings["vcs.revision"],
		CommitTime: buildSettings["vcs.time"],
		Dirty:      buildSettings["vcs.modified"] == "true",
	}
	if meta.Commit == "" {
		meta.Commit = "[commit unknown]"
	}
	if meta.CommitTime == "" {
		meta.CommitTime = "[commit time unknown]"
	}
	return meta
}

// Version returns the short version string.
func Version() string {
	return GetInfo().short()
}

func (meta *Info) short() string {
	if meta.Dirty {
		return meta.Version + "*"
	}
	return meta.Version
}

// FullVersion returns the full and detailed version string.
func FullVersion() string {
	meta := GetInfo()
	builder := new(strings.Builder)

	fmt.Fprintf(builder, "%s %s\n", meta.Name, meta.short())
	if meta.Schema != "" {
		fmt.Fprintf(builder, "  schema %s\n", meta.Schema)
	}
	if len(meta.Storages) > 0 {
		fmt.Fprintf(builder, "  storages %s\n", strings.Join(meta.Storages, ", "))
	}

	fmt.Fprintf(builder, "\nbuilt with %s (%s) %s\n", meta.GoVersion, runtime.Compiler, meta.Platform)
	fmt.Fprintf(builder, "  at %s\n", meta.BuildTime)

	fmt.Fprintf(builder, "\ncommit %s\n", meta.Commit)
	fmt.Fprintf(builder, "  at %s\n", meta.CommitTime)
	fmt.Fprintf(builder, "  from %s\n", meta.Source)

	fmt.Fprintf(builder, "\nLicensed under the %s license.", meta.License)
	return builder.String()
}
