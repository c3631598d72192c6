package workflow

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// ExtractURL returns the first URL in text, or "".
func ExtractURL(text string) string {
	return urlPattern.FindString(text)
}

// ExtractRepoName derives the checkout directory from a git URL: the last
// path segment with a trailing ".git" stripped.
func ExtractRepoName(gitURL string) string {
	if gitURL == "" {
		return "repo"
	}
	trimmed := strings.TrimRight(gitURL, "/")
	name := trimmed[strings.LastIndex(trimmed, "/")+1:]
	name = strings.TrimSuffix(name, ".git")
	if name == "" {
		return "repo"
	}
	return name
}
