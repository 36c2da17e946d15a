package reindex

import (
	"fmt"
	"net/url"
	"strings"
)

// PageURLs joins every path under every locale prefix to base, in path order.
// "/" under "en" becomes "https://isolele.com/en".
func PageURLs(base string, paths, locales []string) ([]string, error) {
	root, err := parseBase(base)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(paths)*len(locales))
	for _, p := range paths {
		p = "/" + strings.Trim(strings.TrimSpace(p), "/")
		for _, loc := range locales {
			loc = strings.Trim(strings.TrimSpace(loc), "/")
			if loc == "" {
				continue
			}
			full := "/" + loc
			if p != "/" {
				full += p
			}
			out = append(out, root.JoinPath(full).String())
		}
	}
	return out, nil
}

// SitemapURL resolves the sitemap path against base.
func SitemapURL(base, sitemapPath string) (string, error) {
	root, err := parseBase(base)
	if err != nil {
		return "", err
	}
	return root.JoinPath(strings.TrimSpace(sitemapPath)).String(), nil
}

func parseBase(base string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return nil, fmt.Errorf("public base url %q must be an absolute http(s) URL", base)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
