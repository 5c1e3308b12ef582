package httpapi

import (
	"net/http"
	"strconv"
	"strings"
)

// pathID extracts the trailing integer segment after prefix. ok is false for
// missing, non-numeric or multi-segment remainders.
func pathID(req *http.Request, prefix string) (int, bool) {
	rest := strings.TrimPrefix(req.URL.Path, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return id, true
}

// pathIDs extracts two trailing integer segments ("{a}/{b}") after prefix.
func pathIDs(req *http.Request, prefix string) (int, int, bool) {
	rest := strings.TrimPrefix(req.URL.Path, prefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

// actorID reads the already-authenticated caller identity set by the
// gateway. Identity management itself lives outside this service.
func actorID(req *http.Request) int {
	id, err := strconv.Atoi(req.Header.Get("X-Actor-Id"))
	if err != nil {
		return 0
	}
	return id
}
