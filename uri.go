package eo3

import (
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var urlRe = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z0-9+.\-]*://`)

// IsURL reports whether s looks like scheme://...
func IsURL(s string) bool { return urlRe.MatchString(s) }

// IsAbsolute reports whether a measurement path is absolute: it has a scheme,
// a host, or an absolute filesystem path.
func IsAbsolute(p string) bool {
	u, err := url.Parse(p)
	if err != nil {
		return filepath.IsAbs(p)
	}
	return u.Scheme != "" || u.Host != "" || strings.HasPrefix(u.Path, "/")
}

// PartFromURI extracts the deprecated "#part=N" fragment. It returns
// (nil, false) when there is none, an int when the part is numeric and the
// raw string otherwise.
func PartFromURI(p string) (any, bool) {
	u, err := url.Parse(p)
	if err != nil || u.Fragment == "" {
		return nil, false
	}
	q, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return nil, false
	}
	vals, ok := q["part"]
	if !ok || len(vals) == 0 {
		return nil, false
	}
	part := vals[len(vals)-1]
	if n, err := strconv.Atoi(part); err == nil {
		return n, true
	}
	return part, true
}

// ResolveURI resolves p against base, the location of the document that
// references it. URLs and /vsi paths are returned unchanged.
func ResolveURI(base, p string) string {
	if p == "" {
		return base
	}
	if strings.HasPrefix(strings.ToLower(p), "/vsi") || IsURL(p) {
		return p
	}
	if filepath.IsAbs(p) {
		return p
	}
	if strings.HasPrefix(strings.ToLower(base), "/vsi") {
		return strings.TrimRight(base, "/") + "/" + p
	}
	if IsURL(base) {
		bu, err := url.Parse(base)
		if err != nil {
			return p
		}
		ref, err := url.Parse(p)
		if err != nil {
			return p
		}
		return bu.ResolveReference(ref).String()
	}
	if strings.HasSuffix(base, "/") {
		return filepath.Join(base, p)
	}
	return filepath.Join(filepath.Dir(base), p)
}

// LocalPath turns a file:// URI into a filesystem path. Other URLs report
// ok=false.
func LocalPath(uri string) (string, bool) {
	if !IsURL(uri) {
		return uri, true
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return path.Clean(u.Path), true
}
