package repo

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var scpSyntaxRe = regexp.MustCompile(`^([a-zA-Z0-9_]+)@([a-zA-Z0-9._-]+):(.*)$`)

// gitRemoteRepoId turns a git remote, in either url or scp syntax, into a
// host/path id.
func gitRemoteRepoId(configUrl string) (string, error) {
	var id string
	if m := scpSyntaxRe.FindStringSubmatch(configUrl); m != nil {
		id = fmt.Sprintf("%s/%s", m[2], strings.TrimPrefix(m[3], "/"))
	} else {
		repoURL, err := url.Parse(configUrl)
		if err != nil {
			return "", err
		}

		id = fmt.Sprintf("%s/%s", repoURL.Host, strings.TrimPrefix(repoURL.Path, "/"))
	}

	return strings.TrimSuffix(id, ".git"), nil
}
