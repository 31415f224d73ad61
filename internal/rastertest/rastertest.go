// Package rastertest writes tiny GeoTIFF files for tests. Only the header
// tags the raster package reads are written; there is no pixel data.
package rastertest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// Spec describes the file to write.
type Spec struct {
	Dtype string // "uint8", "int16", "float32", ...
	Bands int    // 1 when zero
	// Nodata is written as the GDAL_NODATA tag; empty means none.
	Nodata string
}

type entry struct {
	tag, typ uint16
	count    uint32
	data     []byte
}

// Write creates dir/name and returns its path.
func Write(t testing.TB, dir, name string, spec Spec) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Encode(t, spec), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Encode renders the little-endian TIFF bytes.
func Encode(t testing.TB, spec Spec) []byte {
	t.Helper()
	format, bits := sampleFormat(t, spec.Dtype)
	bands := spec.Bands
	if bands == 0 {
		bands = 1
	}
	le := binary.LittleEndian
	short := func(v int) []byte { return le.AppendUint16(nil, uint16(v)) }

	entries := []entry{
		{tag: 256, typ: 3, count: 1, data: short(10)},
		{tag: 257, typ: 3, count: 1, data: short(10)},
		{tag: 258, typ: 3, count: 1, data: short(bits)},
		{tag: 277, typ: 3, count: 1, data: short(bands)},
		{tag: 339, typ: 3, count: 1, data: short(format)},
	}
	if spec.Nodata != "" {
		ascii := append([]byte(spec.Nodata), 0)
		entries = append(entries, entry{tag: 42113, typ: 2, count: uint32(len(ascii)), data: ascii})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	const ifdOffset = 8
	extra := ifdOffset + 2 + 12*len(entries) + 4
	var head, tail bytes.Buffer
	head.WriteString("II")
	head.Write(le.AppendUint16(nil, 42))
	head.Write(le.AppendUint32(nil, ifdOffset))
	head.Write(le.AppendUint16(nil, uint16(len(entries))))
	for _, e := range entries {
		head.Write(le.AppendUint16(nil, e.tag))
		head.Write(le.AppendUint16(nil, e.typ))
		head.Write(le.AppendUint32(nil, e.count))
		if len(e.data) <= 4 {
			value := make([]byte, 4)
			copy(value, e.data)
			head.Write(value)
			continue
		}
		head.Write(le.AppendUint32(nil, uint32(extra+tail.Len())))
		tail.Write(e.data)
	}
	// No further IFDs.
	head.Write(le.AppendUint32(nil, 0))
	return append(head.Bytes(), tail.Bytes()...)
}

func sampleFormat(t testing.TB, dtype string) (format, bits int) {
	t.Helper()
	for prefix, f := range map[string]int{"uint": 1, "int": 2, "float": 3} {
		rest, ok := strings.CutPrefix(dtype, prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		return f, n
	}
	t.Fatalf("unsupported dtype %q", dtype)
	return 0, 0
}
