package tz

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

var zoneDirs = []string{
	"/usr/share/zoneinfo/",
	"/usr/share/lib/zoneinfo/",
	"/usr/lib/locale/TZ/",
}

//go:generate go run gen_zones.go -zip $GOROOT/lib/time/zoneinfo.zip

// SystemSource enumerates the zoneinfo database installed on the host. Without
// one it serves the list generated from the archive that time/tzdata embeds.
type SystemSource struct{}

// Zones implements Source.
func (SystemSource) Zones() ([]string, error) {
	var candidates []string
	if env := os.Getenv("ZONEINFO"); env != "" {
		candidates = append(candidates, env)
	}
	return zonesFrom(append(candidates, zoneDirs...)), nil
}

// zonesFrom returns the zones of the first usable candidate, a directory tree
// or a zip archive, falling back to embeddedZones.
func zonesFrom(candidates []string) []string {
	for _, c := range candidates {
		var (
			zones []string
			err   error
		)
		if strings.HasSuffix(c, ".zip") {
			zones, err = zipZones(c)
		} else {
			zones, err = dirZones(c)
		}
		if err == nil && len(zones) > 0 {
			return zones
		}
	}
	out := make([]string, len(embeddedZones))
	copy(out, embeddedZones)
	return out
}

func dirZones(root string) ([]string, error) {
	var zones []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == "posix" || rel == "right" || !validName(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !validName(rel) || !isTZif(path) {
			return nil
		}
		zones = append(zones, rel)
		return nil
	})
	return zones, err
}

func zipZones(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var zones []string
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") || !validName(f.Name) {
			continue
		}
		zones = append(zones, f.Name)
	}
	return zones, nil
}

// validName accepts identifiers whose segments all start with an upper-case
// letter, which excludes helper files like zone.tab or leapseconds.
func validName(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || !unicode.IsUpper(rune(seg[0])) || strings.Contains(seg, ".") {
			return false
		}
	}
	return name != "Factory"
}

func isTZif(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return false
	}
	return bytes.Equal(magic, []byte("TZif"))
}
