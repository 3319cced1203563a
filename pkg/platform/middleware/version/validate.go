package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Major returns the major component of a "vMAJOR.MINOR.PATCH" version.
// The leading "v" and the minor/patch parts are optional.
func Major(v string) (int, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	head, _, _ := strings.Cut(v, ".")
	major, err := strconv.Atoi(head)
	if err != nil || major < 0 {
		return 0, fmt.Errorf("invalid contract version %q", v)
	}
	return major, nil
}

// Compatible reports whether a client built against clientVersion can talk to
// a server speaking serverVersion. Only the major version must match.
func Compatible(serverVersion, clientVersion string) bool {
	server, err := Major(serverVersion)
	if err != nil {
		return false
	}
	client, err := Major(clientVersion)
	if err != nil {
		return false
	}
	return server == client
}
