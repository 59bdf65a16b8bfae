package task

import (
	"sort"

	"github.com/agext/levenshtein"
)

// A typeMapping describes how one source resource type translates to a
// target module.
type typeMapping struct {
	module        string
	defaultAction string

	// nameParam receives the resource's name expression, such as dest for a
	// template. Empty means the name is display-only.
	nameParam string

	// propParams renames source properties to target parameters. Properties
	// without an entry keep their name.
	propParams map[string]string

	// actionParams holds the fixed parameters each action contributes, such
	// as state: present. An action missing from the map is unrecognized for
	// the type.
	actionParams map[string][]Param

	// dropProps lists properties consumed by the mapping itself and not
	// forwarded, such as a service action list.
	dropProps []string
}

var packageActions = map[string][]Param{
	"install": {{Name: "state", Value: "present"}},
	"upgrade": {{Name: "state", Value: "latest"}},
	"remove":  {{Name: "state", Value: "absent"}},
	"purge":   {{Name: "state", Value: "absent"}},
	"nothing": nil,
}

var serviceActions = map[string][]Param{
	"enable":  {{Name: "enabled", Value: true}},
	"disable": {{Name: "enabled", Value: false}},
	"start":   {{Name: "state", Value: "started"}},
	"stop":    {{Name: "state", Value: "stopped"}},
	"restart": {{Name: "state", Value: "restarted"}},
	"reload":  {{Name: "state", Value: "reloaded"}},
	"nothing": nil,
}

var fileActions = map[string][]Param{
	"create":            nil,
	"create_if_missing": {{Name: "force", Value: false}},
	"delete":            {{Name: "state", Value: "absent"}},
	"touch":             {{Name: "state", Value: "touch"}},
	"nothing":           nil,
}

// typeTable is the static type-to-module lookup. Unlisted types fall back to
// a generic command task with a warning.
var typeTable = map[string]typeMapping{
	"package": {
		module: "package", defaultAction: "install", nameParam: "name",
		propParams:   map[string]string{"package_name": "name", "version": "version"},
		actionParams: packageActions,
	},
	"apt_package": {
		module: "apt", defaultAction: "install", nameParam: "name",
		propParams:   map[string]string{"package_name": "name"},
		actionParams: packageActions,
	},
	"yum_package": {
		module: "yum", defaultAction: "install", nameParam: "name",
		propParams:   map[string]string{"package_name": "name"},
		actionParams: packageActions,
	},
	"gem_package": {
		module: "gem", defaultAction: "install", nameParam: "name",
		propParams:   map[string]string{"package_name": "name"},
		actionParams: packageActions,
	},
	"service": {
		module: "service", defaultAction: "start", nameParam: "name",
		propParams:   map[string]string{"service_name": "name"},
		actionParams: serviceActions,
		dropProps:    []string{"supports"},
	},
	"template": {
		module: "template", defaultAction: "create", nameParam: "dest",
		propParams: map[string]string{
			"source": "src", "path": "dest",
			"owner": "owner", "group": "group", "mode": "mode",
			"variables": "vars",
		},
		actionParams: fileActions,
	},
	"cookbook_file": {
		module: "copy", defaultAction: "create", nameParam: "dest",
		propParams:   map[string]string{"source": "src", "path": "dest"},
		actionParams: fileActions,
	},
	"file": {
		module: "file", defaultAction: "create", nameParam: "path",
		propParams:   map[string]string{"path": "path"},
		actionParams: fileActions,
	},
	"remote_file": {
		module: "get_url", defaultAction: "create", nameParam: "dest",
		propParams:   map[string]string{"source": "url", "path": "dest", "checksum": "checksum"},
		actionParams: fileActions,
	},
	"directory": {
		module: "file", defaultAction: "create", nameParam: "path",
		propParams:   map[string]string{"path": "path", "recursive": "recurse"},
		actionParams: map[string][]Param{
			"create":  {{Name: "state", Value: "directory"}},
			"delete":  {{Name: "state", Value: "absent"}},
			"nothing": nil,
		},
	},
	"link": {
		module: "file", defaultAction: "create", nameParam: "dest",
		propParams:   map[string]string{"to": "src", "target_file": "dest"},
		actionParams: map[string][]Param{
			"create":  {{Name: "state", Value: "link"}},
			"delete":  {{Name: "state", Value: "absent"}},
			"nothing": nil,
		},
	},
	"user": {
		module: "user", defaultAction: "create", nameParam: "name",
		propParams: map[string]string{
			"username": "name", "uid": "uid", "gid": "group",
			"home": "home", "shell": "shell", "comment": "comment",
			"manage_home": "create_home",
		},
		actionParams: map[string][]Param{
			"create":  nil,
			"remove":  {{Name: "state", Value: "absent"}},
			"lock":    {{Name: "password_lock", Value: true}},
			"unlock":  {{Name: "password_lock", Value: false}},
			"nothing": nil,
		},
	},
	"group": {
		module: "group", defaultAction: "create", nameParam: "name",
		propParams:   map[string]string{"group_name": "name", "gid": "gid", "members": "members"},
		actionParams: map[string][]Param{
			"create":  nil,
			"remove":  {{Name: "state", Value: "absent"}},
			"nothing": nil,
		},
	},
	"execute": {
		module: "command", defaultAction: "run", nameParam: "cmd",
		propParams: map[string]string{
			"command": "cmd", "cwd": "chdir", "creates": "creates",
		},
		actionParams: map[string][]Param{"run": nil, "nothing": nil},
	},
	"bash": {
		module: "shell", defaultAction: "run", nameParam: "",
		propParams: map[string]string{
			"code": "cmd", "cwd": "chdir", "creates": "creates",
		},
		actionParams: map[string][]Param{"run": nil, "nothing": nil},
	},
	"script": {
		module: "script", defaultAction: "run", nameParam: "",
		propParams:   map[string]string{"code": "cmd", "cwd": "chdir"},
		actionParams: map[string][]Param{"run": nil, "nothing": nil},
	},
	"cron": {
		module: "cron", defaultAction: "create", nameParam: "name",
		propParams: map[string]string{
			"minute": "minute", "hour": "hour", "day": "day",
			"month": "month", "weekday": "weekday", "command": "job",
			"user": "user",
		},
		actionParams: map[string][]Param{
			"create":  nil,
			"delete":  {{Name: "state", Value: "absent"}},
			"nothing": nil,
		},
	},
	"mount": {
		module: "mount", defaultAction: "mount", nameParam: "path",
		propParams: map[string]string{
			"device": "src", "fstype": "fstype", "options": "opts",
		},
		actionParams: map[string][]Param{
			"mount":   {{Name: "state", Value: "mounted"}},
			"umount":  {{Name: "state", Value: "unmounted"}},
			"enable":  {{Name: "state", Value: "present"}},
			"disable": {{Name: "state", Value: "absent"}},
			"nothing": nil,
		},
	},
	"git": {
		module: "git", defaultAction: "sync", nameParam: "dest",
		propParams: map[string]string{
			"repository": "repo", "revision": "version",
			"destination": "dest", "depth": "depth",
		},
		actionParams: map[string][]Param{
			"sync":     nil,
			"checkout": {{Name: "update", Value: false}},
			"export":   nil,
			"nothing":  nil,
		},
	},
	"log": {
		module: "debug", defaultAction: "write", nameParam: "msg",
		propParams:   map[string]string{"message": "msg"},
		actionParams: map[string][]Param{"write": nil, "nothing": nil},
	},
}

// suggestType returns a known type name close to want, or "" when nothing is
// within edit distance. Distance scales with the input length so short names
// do not suggest wildly.
func suggestType(want string, extra []string) string {
	maxDist := len(want) / 3
	if maxDist == 0 {
		maxDist = 1
	}

	candidates := make([]string, 0, len(typeTable)+len(extra))
	for cand := range typeTable {
		candidates = append(candidates, cand)
	}
	candidates = append(candidates, extra...)
	sort.Strings(candidates)

	best := ""
	bestDist := maxDist + 1
	for _, cand := range candidates {
		if d := levenshtein.Distance(want, cand, nil); d < bestDist {
			best = cand
			bestDist = d
		}
	}
	return best
}
