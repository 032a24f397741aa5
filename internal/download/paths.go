package download

import (
	"path"
	"strings"
)

// IsWindowsPath reports whether p looks like a drive-rooted ("C:\books") or
// UNC ("\\nas\books") path.
func IsWindowsPath(p string) bool {
	if strings.HasPrefix(p, `\\`) && len(p) > 2 {
		return true
	}
	if len(p) >= 3 && isDriveLetter(p[0]) && p[1] == ':' && (p[2] == '\\' || p[2] == '/') {
		return true
	}
	return false
}

// IsUnixPath reports whether p is an absolute slash-rooted path.
func IsUnixPath(p string) bool {
	return strings.HasPrefix(p, "/")
}

// IsValidLocalPath reports whether p is a well formed absolute path for the
// given GOOS value. A path reported by a client on another platform fails
// this check and needs a remote path mapping.
func IsValidLocalPath(p, goos string) bool {
	if strings.TrimSpace(p) == "" {
		return false
	}
	if goos == "windows" {
		return IsWindowsPath(p)
	}
	return IsUnixPath(p)
}

func isDriveLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// PathMapping rewrites output paths reported by one download client.
// An empty Client applies to every client.
type PathMapping struct {
	Client     string
	RemotePath string
	LocalPath  string
}

// Mapper translates client-reported paths into local paths.
type Mapper struct {
	mappings []PathMapping
}

// NewMapper builds a mapper. Longer remote prefixes win over shorter ones.
func NewMapper(mappings []PathMapping) *Mapper {
	cp := make([]PathMapping, 0, len(mappings))
	for _, m := range mappings {
		if strings.TrimSpace(m.RemotePath) == "" || strings.TrimSpace(m.LocalPath) == "" {
			continue
		}
		cp = append(cp, m)
	}
	return &Mapper{mappings: cp}
}

// Map returns the local form of remotePath for client. Paths without a
// matching mapping are returned unchanged.
func (m *Mapper) Map(client, remotePath string) string {
	if m == nil || remotePath == "" {
		return remotePath
	}
	var (
		best    PathMapping
		bestLen = -1
	)
	for _, mapping := range m.mappings {
		if mapping.Client != "" && !strings.EqualFold(mapping.Client, client) {
			continue
		}
		prefix := normalizePrefix(mapping.RemotePath)
		if !hasPathPrefix(normalizeSeparators(remotePath), prefix) {
			continue
		}
		if len(prefix) > bestLen {
			best = mapping
			bestLen = len(prefix)
		}
	}
	if bestLen < 0 {
		return remotePath
	}

	rest := normalizeSeparators(remotePath)[len(normalizePrefix(best.RemotePath)):]
	rest = strings.TrimPrefix(rest, "/")
	local := best.LocalPath
	if IsWindowsPath(local) {
		if rest == "" {
			return local
		}
		return strings.TrimRight(local, `\/`) + `\` + strings.ReplaceAll(rest, "/", `\`)
	}
	return path.Join(local, rest)
}

func normalizeSeparators(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func normalizePrefix(p string) string {
	p = normalizeSeparators(strings.TrimSpace(p))
	if p == "/" {
		return p
	}
	return strings.TrimRight(p, "/")
}

func hasPathPrefix(p, prefix string) bool {
	if prefix == "/" {
		return strings.HasPrefix(p, "/")
	}
	if !strings.HasPrefix(strings.ToLower(p), strings.ToLower(prefix)) {
		return false
	}
	return len(p) == len(prefix) || p[len(prefix)] == '/'
}
