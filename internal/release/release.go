// Package release discovers published Lumina versions from a JSON
// release feed, so the installer can tell whether the manifest it was
// given is current.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/AsaiYusuke/jsonpath"
	"github.com/Masterminds/semver/v3"

	"github.com/luminahq/lumina-install/internal/metaerr"
)

// Latest queries the feed at url, extracts version strings with the
// JSONPath `path` and returns the newest version matching `spec`.
// An empty or "latest" spec matches everything.
func Latest(ctx context.Context, client *http.Client, url string, path string, spec string, prefix string) (string, error) {
	versions, err := Versions(ctx, client, url, path)
	if err != nil {
		return "", err
	}
	return FindLatest(versions, spec, prefix)
}

// Versions queries the feed at url, following Link-header pagination,
// and filters each response with the JSONPath `path` to collect the
// published version strings.
func Versions(ctx context.Context, client *http.Client, url string, path string) ([]string, error) {
	var versions []string

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, metaerr.WithMetadata(
				fmt.Errorf("%d - %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
				"body", string(body),
			)
		}
		if readErr != nil {
			return nil, fmt.Errorf("read response body: %w", readErr)
		}

		var src any
		if err := json.Unmarshal(body, &src); err != nil {
			return nil, fmt.Errorf("unmarshal response body: %w", err)
		}

		vs, err := retrieveVersions(src, path)
		if err != nil {
			return nil, err
		}
		versions = append(versions, vs...)

		nextLink := findNextLink(resp.Header.Values("Link"))
		if nextLink == "" {
			break
		}
		url = nextLink
	}

	return versions, nil
}

// FindLatest returns the newest version from `versions` that satisfies
// the constraints `spec`.
func FindLatest(versions []string, spec string, prefix string) (string, error) {
	if spec == "" || spec == "latest" {
		spec = "*"
	}
	constraints, err := semver.NewConstraint(strings.TrimPrefix(spec, prefix))
	if err != nil {
		return "", err
	}

	vs := make([]*semver.Version, 0, len(versions))
	for _, raw := range versions {
		v, err := semver.NewVersion(strings.TrimPrefix(raw, prefix))
		if err != nil {
			continue
		}
		if !constraints.Check(v) {
			continue
		}
		vs = append(vs, v)
	}
	if len(vs) == 0 {
		return "", fmt.Errorf("no matching versions: %v", spec)
	}

	sort.Sort(sort.Reverse(semver.Collection(vs)))
	return prefix + vs[0].Original(), nil
}

// Compare reports whether candidate is newer than current, tolerating
// a leading prefix (usually "v") on either side.
func Compare(current string, candidate string, prefix string) (bool, error) {
	cur, err := semver.NewVersion(strings.TrimPrefix(current, prefix))
	if err != nil {
		return false, fmt.Errorf("parse current version: %w", err)
	}
	cand, err := semver.NewVersion(strings.TrimPrefix(candidate, prefix))
	if err != nil {
		return false, fmt.Errorf("parse candidate version: %w", err)
	}
	return cand.GreaterThan(cur), nil
}

func retrieveVersions(src any, path string) ([]string, error) {
	config := jsonpath.Config{}
	config.SetAccessorMode()

	results, err := jsonpath.Retrieve(path, src, config)
	if err != nil {
		return nil, err
	}

	var versions []string
	for _, result := range results {
		version, _ := result.(jsonpath.Accessor).Get().(string)
		if version == "" {
			continue
		}
		versions = append(versions, version)
	}

	return versions, nil
}

func findNextLink(headers []string) string {
	for _, raw := range headers {
		// Header values may be comma delimited sequences
		for _, header := range strings.Split(raw, ",") {
			var linkURL, linkRel string

			// Link header values have the form: <url>; rel="next"; foo="bar"
			for _, part := range strings.Split(header, ";") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}

				if part[0] == '<' && part[len(part)-1] == '>' {
					linkURL = strings.Trim(part, "<>")
					continue
				}

				keyval := strings.SplitN(part, "=", 2)
				if len(keyval) != 2 {
					continue
				} else if strings.ToLower(keyval[0]) == "rel" {
					linkRel = strings.Trim(keyval[1], "\"")
				}
			}

			if strings.ToLower(linkRel) == "next" {
				return linkURL
			}
		}
	}
	return ""
}
