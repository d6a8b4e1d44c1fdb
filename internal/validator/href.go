package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wharflab/forgecheck/internal/diag"
)

// DefaultBranch is used in GitHub links when no branch is configured.
const DefaultBranch = "HEAD"

var githubRepoURL = regexp.MustCompile(`github\.com[/:]([^/\s]+)/([^/\s]+)\.git$`)

// HrefPrefix returns the prefix used to link diagnostic locations to the
// source. GitHub clone URLs become blob links for branch; any other URI is
// used as is. An empty URI yields no prefix.
func HrefPrefix(sourceURI, branch string) string {
	sourceURI = strings.TrimSpace(sourceURI)
	if sourceURI == "" {
		return ""
	}
	if m := githubRepoURL.FindStringSubmatch(sourceURI); m != nil {
		if branch == "" {
			branch = DefaultBranch
		}
		return fmt.Sprintf("https://github.com/%s/%s/blob/%s/", m[1], m[2], branch)
	}
	return sourceURI
}

// Href returns the link for loc, or "" when there is no prefix or file.
func Href(prefix string, loc diag.Location) string {
	if prefix == "" || loc.File == "" {
		return ""
	}
	href := prefix + strings.TrimPrefix(loc.Slash().File, "/")
	if loc.Line > 0 {
		href += fmt.Sprintf("#L%d", loc.Line)
	}
	return href
}
