package guard

import (
	"regexp"
	"strings"
)

// staticAsset matches file extensions served without evaluation. ".js" is
// only an asset when not followed by "on", so .json routes stay guarded.
var staticAsset = regexp.MustCompile(`\.(html?|css|js|jpe?g|webp|png|gif|svg|ttf|woff2?|ico|csv|docx?|xlsx?|zip|webmanifest)`)

// alwaysEvaluated prefixes are checked even when they look like assets.
var alwaysEvaluated = []string{"/api", "/trpc"}

// Evaluated reports whether the guard inspects a request path. Build output
// under /_next and static assets are skipped.
func Evaluated(path string) bool {
	for _, prefix := range alwaysEvaluated {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if strings.HasPrefix(path, "/_next") {
		return false
	}
	return !isStaticAsset(path)
}

func isStaticAsset(path string) bool {
	for _, m := range staticAsset.FindAllStringSubmatchIndex(path, -1) {
		ext := path[m[2]:m[3]]
		if ext == "js" && strings.HasPrefix(path[m[1]:], "on") {
			continue
		}
		return true
	}
	return false
}
