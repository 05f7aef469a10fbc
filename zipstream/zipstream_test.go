package zipstream

import (
	"archive/zip"
	"bytes"
	"hash/crc32"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

type testFile struct {
	name   string
	data   string
	stored bool
}

func buildZip(t *testing.T, files []testFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		var fw io.Writer
		var err error
		if f.stored {
			fw, err = w.CreateRaw(&zip.FileHeader{
				Name:               f.name,
				Method:             zip.Store,
				CRC32:              crc32.ChecksumIEEE([]byte(f.data)),
				CompressedSize64:   uint64(len(f.data)),
				UncompressedSize64: uint64(len(f.data)),
			})
		} else {
			fw, err = w.Create(f.name)
		}
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(fw, f.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func readAll(t *testing.T, data []byte) ([]*Entry, []string, error) {
	t.Helper()
	z := NewReader(bytes.NewReader(data))
	var entries []*Entry
	var contents []string
	for {
		e, body, err := z.NextFile()
		if err == io.EOF {
			return entries, contents, nil
		}
		if err != nil {
			return entries, contents, err
		}
		entries = append(entries, e)
		contents = append(contents, string(body))
	}
}

func TestReadsEntriesInOrder(t *testing.T) {
	files := []testFile{
		{name: "metadata.json", data: `{"frames":[]}`},
		{name: "000000.png", data: strings.Repeat("frame zero ", 200)},
		{name: "000001.png", data: "raw bytes", stored: true},
		{name: "empty", data: ""},
	}
	entries, contents, err := readAll(t, buildZip(t, files))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != len(files) {
		t.Fatalf("entries = %d, want %d", len(entries), len(files))
	}
	for i, f := range files {
		if entries[i].Name != f.name || entries[i].Index != i {
			t.Errorf("entry %d = %q index %d", i, entries[i].Name, entries[i].Index)
		}
		if contents[i] != f.data {
			t.Errorf("%s: contents differ (%d bytes, want %d)", f.name, len(contents[i]), len(f.data))
		}
	}
	if entries[1].Method != Deflate || entries[2].Method != Store {
		t.Errorf("methods = %d, %d", entries[1].Method, entries[2].Method)
	}
	if entries[1].UncompressedSize != uint64(len(files[1].data)) {
		t.Errorf("descriptor size = %d, want %d", entries[1].UncompressedSize, len(files[1].data))
	}
}

func TestNextSkipsUnreadData(t *testing.T) {
	data := buildZip(t, []testFile{
		{name: "a", data: strings.Repeat("a", 5000)},
		{name: "b", data: "bee", stored: true},
	})
	z := NewReader(bytes.NewReader(data))
	if _, err := z.Next(); err != nil {
		t.Fatal(err)
	}
	var small [10]byte
	if _, err := z.Read(small[:]); err != nil {
		t.Fatal(err)
	}
	e, body, err := z.NextFile()
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "b" || string(body) != "bee" {
		t.Errorf("got %q = %q", e.Name, body)
	}
	if _, err := z.Next(); err != io.EOF {
		t.Errorf("after last entry: %v, want io.EOF", err)
	}
}

func TestTruncatedStream(t *testing.T) {
	data := buildZip(t, []testFile{
		{name: "a", data: strings.Repeat("abc", 1000)},
		{name: "b", data: strings.Repeat("def", 1000), stored: true},
	})
	// Cut inside the second entry's data.
	cut := bytes.Index(data, []byte("defdef")) + 100
	entries, _, err := readAll(t, data[:cut])
	if err == nil {
		t.Fatal("truncated stream read without error")
	}
	if errors.Cause(err) != io.ErrUnexpectedEOF {
		t.Errorf("error = %v, want unexpected EOF", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries before the cut = %d, want 1", len(entries))
	}
}

func TestChecksumMismatch(t *testing.T) {
	data := buildZip(t, []testFile{{name: "a", data: "hello world", stored: true}})
	i := bytes.Index(data, []byte("hello"))
	data[i] = 'j'
	_, _, err := readAll(t, data)
	if errors.Cause(err) != ErrChecksum {
		t.Errorf("error = %v, want checksum error", err)
	}
}

func TestNotAZip(t *testing.T) {
	_, _, err := readAll(t, []byte("this is not a zip file at all"))
	if errors.Cause(err) != ErrFormat {
		t.Errorf("error = %v, want format error", err)
	}
}

func TestEmptyStream(t *testing.T) {
	_, _, err := readAll(t, nil)
	if errors.Cause(err) != io.ErrUnexpectedEOF {
		t.Errorf("error = %v, want unexpected EOF", err)
	}
}

func TestUnsupportedMethod(t *testing.T) {
	data := buildZip(t, []testFile{{name: "a", data: "x", stored: true}})
	// Method lives at offset 8 of the local header.
	data[8] = 12
	_, _, err := readAll(t, data)
	if errors.Cause(err) != ErrAlgorithm {
		t.Errorf("error = %v, want unsupported method", err)
	}
}

func TestErrorIsSticky(t *testing.T) {
	z := NewReader(strings.NewReader("garbage!"))
	_, first := z.Next()
	_, second := z.Next()
	if first == nil || first != second {
		t.Errorf("errors = %v then %v, want the same error twice", first, second)
	}
}

func TestParseZip64(t *testing.T) {
	e := &Entry{CompressedSize: 0xffffffff, UncompressedSize: 0xffffffff}
	extra := []byte{
		0x99, 0x99, 2, 0, 0xaa, 0xbb, // unrelated field
		0x01, 0x00, 16, 0,
		0, 0, 0, 0, 1, 0, 0, 0, // uncompressed: 1<<32
		5, 0, 0, 0, 0, 0, 0, 0, // compressed: 5
	}
	parseZip64(e, extra)
	if e.UncompressedSize != 1<<32 || e.CompressedSize != 5 {
		t.Errorf("sizes = %d/%d", e.CompressedSize, e.UncompressedSize)
	}
}
