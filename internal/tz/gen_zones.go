//go:build ignore

// gen_zones writes zones_gen.go from the zoneinfo.zip shipped with a Go
// release:
//
//	go run gen_zones.go -zip $(go env GOROOT)/lib/time/zoneinfo.zip
package main

import (
	"archive/zip"
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"os"
	"sort"
	"strings"
	"unicode"
)

func main() {
	zipPath := flag.String("zip", "", "path to zoneinfo.zip")
	out := flag.String("out", "zones_gen.go", "file to write")
	flag.Parse()

	if err := run(*zipPath, *out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(zipPath, out string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, "/") && valid(f.Name) {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)

	var b bytes.Buffer
	b.WriteString("// Code generated by gen_zones.go; DO NOT EDIT.\n\npackage tz\n\n")
	b.WriteString("// embeddedZones lists the identifiers of the zoneinfo archive bundled with\n")
	b.WriteString("// Go, for hosts without a zoneinfo database.\n")
	b.WriteString("var embeddedZones = []string{\n")
	for _, n := range names {
		fmt.Fprintf(&b, "\t%q,\n", n)
	}
	b.WriteString("}\n")

	src, err := format.Source(b.Bytes())
	if err != nil {
		return err
	}
	return os.WriteFile(out, src, 0o644)
}

// valid mirrors validName in system.go.
func valid(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || !unicode.IsUpper(rune(seg[0])) || strings.Contains(seg, ".") {
			return false
		}
	}
	return name != "Factory"
}
