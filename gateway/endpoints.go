package gateway

import (
	"net/url"
	"strings"
)

// Endpoint paths relative to the API base URL.
// Every request the console makes is addressed through these constants.
const (
	// Auth
	PathLogin   = "/auth/login/"
	PathLogout  = "/auth/logout/"
	PathUser    = "/auth/user/"
	PathRefresh = "/token/refresh/"

	// Academy resources
	PathGroups      = "/groups/"
	PathStudents    = "/students/"
	PathTopStudents = "/students/top/"
	PathAttendance  = "/attendance/"
	PathScores      = "/scores/"
	PathUsers       = "/users/"
)

// Param is one query-string filter. Params keep the order they are given in.
type Param struct {
	Key   string
	Value string
}

// P is shorthand for a Param.
func P(key, value string) Param {
	return Param{Key: key, Value: value}
}

// Query appends the non-empty params to path as key=value pairs joined with
// '&'. Nothing is appended when no filter is set.
func Query(path string, params ...Param) string {
	pairs := make([]string, 0, len(params))
	for _, p := range params {
		if p.Value == "" {
			continue
		}
		pairs = append(pairs, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	if len(pairs) == 0 {
		return path
	}
	return path + "?" + strings.Join(pairs, "&")
}

// Resource returns the detail path for id under a collection path,
// e.g. Resource(PathGroups, "3") is "/groups/3/".
func Resource(collection, id string) string {
	return strings.TrimSuffix(collection, "/") + "/" + url.PathEscape(id) + "/"
}
