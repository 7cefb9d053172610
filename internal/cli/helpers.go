package cli

import (
	"fmt"
	"strings"
)

const (
	VideoKind   = "video"
	AccountKind = "account"
)

var (
	pluralKinds = map[string]string{
		VideoKind:   "videos",
		AccountKind: "accounts",
	}
)

func parseAndValidateKindId(arg string) (string, string, error) {
	kind, id, _ := strings.Cut(arg, "/")
	kind = singular(kind)
	if _, ok := pluralKinds[kind]; !ok {
		return "", "", fmt.Errorf("invalid resource kind: %s", kind)
	}
	if kind == AccountKind && id != "" {
		return "", "", fmt.Errorf("%s does not take an id", kind)
	}
	return kind, id, nil
}

func singular(kind string) string {
	for singular, plural := range pluralKinds {
		if kind == plural {
			return singular
		}
	}
	return kind
}

func plural(kind string) string {
	return pluralKinds[kind]
}
