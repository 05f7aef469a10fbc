// Package zipstream reads zip archives front to back from a stream, without
// seeking to the central directory. Entries are returned as soon as their
// local header and data have arrived, which lets a caller act on the first
// files of an archive while the rest is still downloading.
//
// Only what a sequential reader can know is supported: stored and deflated
// entries, with sizes either in the local header or in a trailing data
// descriptor. Reading stops at the central directory.
package zipstream

import (
	"bufio"
	"compress/flate"
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
)

const (
	localHeaderSig    = 0x04034b50
	centralDirSig     = 0x02014b50
	endOfCentralSig   = 0x06054b50
	dataDescriptorSig = 0x08074b50

	localHeaderLen = 30
	zip64ExtraID   = 0x0001

	flagDataDescriptor = 0x8
	flagEncrypted      = 0x1

	Store   uint16 = 0
	Deflate uint16 = 8
)

// Errors.
var (
	ErrFormat    = errors.New("zipstream: not a valid zip stream")
	ErrAlgorithm = errors.New("zipstream: unsupported compression method")
	ErrChecksum  = errors.New("zipstream: checksum error")
)

// Entry describes one file in the archive.
type Entry struct {
	Name             string
	Method           uint16
	Flags            uint16
	CRC32            uint32
	CompressedSize   uint64
	UncompressedSize uint64
	// Index is the entry's position in the archive, starting at 0.
	Index int
}

// Reader reads entries in archive order. Call Next to advance, then read
// the entry's contents from the Reader itself.
type Reader struct {
	br    *bufio.Reader
	cur   *entryReader
	index int
	err   error
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{br: br}
}

// Next advances to the next entry, discarding whatever is left of the
// current one. It returns io.EOF when the central directory is reached.
func (z *Reader) Next() (*Entry, error) {
	if z.err != nil {
		return nil, z.err
	}
	if z.cur != nil {
		if _, err := io.Copy(io.Discard, z.cur); err != nil {
			z.err = err
			return nil, err
		}
		z.cur = nil
	}

	e, err := z.readHeader()
	if err != nil {
		z.err = err
		return nil, err
	}
	z.cur, err = z.openEntry(e)
	if err != nil {
		z.err = err
		return nil, err
	}
	z.index++
	return e, nil
}

// Read reads from the current entry.
func (z *Reader) Read(p []byte) (int, error) {
	if z.cur == nil {
		if z.err != nil {
			return 0, z.err
		}
		return 0, io.EOF
	}
	return z.cur.Read(p)
}

// NextFile advances to the next entry and returns its whole contents.
func (z *Reader) NextFile() (*Entry, []byte, error) {
	e, err := z.Next()
	if err != nil {
		return nil, nil, err
	}
	data, err := io.ReadAll(z.cur)
	if err != nil {
		z.err = err
		return nil, nil, err
	}
	return e, data, nil
}

func (z *Reader) readHeader() (*Entry, error) {
	var sigBuf [4]byte
	if _, err := io.ReadFull(z.br, sigBuf[:]); err != nil {
		if err == io.EOF && z.index > 0 {
			return nil, io.EOF
		}
		return nil, errors.Wrap(unexpected(err), "reading entry signature")
	}
	switch binary.LittleEndian.Uint32(sigBuf[:]) {
	case localHeaderSig:
	case centralDirSig, endOfCentralSig:
		return nil, io.EOF
	default:
		return nil, errors.Wrapf(ErrFormat, "bad signature at entry %d", z.index)
	}

	var buf [localHeaderLen - 4]byte
	if _, err := io.ReadFull(z.br, buf[:]); err != nil {
		return nil, errors.Wrap(unexpected(err), "reading local header")
	}
	le := binary.LittleEndian
	e := &Entry{
		Flags:            le.Uint16(buf[2:]),
		Method:           le.Uint16(buf[4:]),
		CRC32:            le.Uint32(buf[10:]),
		CompressedSize:   uint64(le.Uint32(buf[14:])),
		UncompressedSize: uint64(le.Uint32(buf[18:])),
		Index:            z.index,
	}
	nameLen := int(le.Uint16(buf[22:]))
	extraLen := int(le.Uint16(buf[24:]))

	name := make([]byte, nameLen)
	if _, err := io.ReadFull(z.br, name); err != nil {
		return nil, errors.Wrap(unexpected(err), "reading file name")
	}
	e.Name = string(name)

	extra := make([]byte, extraLen)
	if _, err := io.ReadFull(z.br, extra); err != nil {
		return nil, errors.Wrapf(unexpected(err), "reading extra field of %s", e.Name)
	}
	parseZip64(e, extra)

	if e.Flags&flagEncrypted != 0 {
		return nil, errors.Wrapf(ErrAlgorithm, "%s is encrypted", e.Name)
	}
	return e, nil
}

// parseZip64 replaces saturated 32-bit sizes with their zip64 values.
func parseZip64(e *Entry, extra []byte) {
	le := binary.LittleEndian
	for len(extra) >= 4 {
		id := le.Uint16(extra)
		size := int(le.Uint16(extra[2:]))
		extra = extra[4:]
		if size > len(extra) {
			return
		}
		field := extra[:size]
		extra = extra[size:]
		if id != zip64ExtraID {
			continue
		}
		if e.UncompressedSize == 0xffffffff && len(field) >= 8 {
			e.UncompressedSize = le.Uint64(field)
			field = field[8:]
		}
		if e.CompressedSize == 0xffffffff && len(field) >= 8 {
			e.CompressedSize = le.Uint64(field)
		}
	}
}

func (z *Reader) openEntry(e *Entry) (*entryReader, error) {
	er := &entryReader{z: z, entry: e, hash: crc32.NewIEEE()}
	descriptor := e.Flags&flagDataDescriptor != 0
	switch e.Method {
	case Store:
		// Some writers set the descriptor flag but still fill in the sizes.
		if descriptor && e.CompressedSize == 0 && e.UncompressedSize == 0 {
			return nil, errors.Wrapf(ErrAlgorithm, "%s: stored entry without sizes", e.Name)
		}
		er.src = io.LimitReader(z.br, int64(e.CompressedSize))
	case Deflate:
		// flate reads byte by byte from a bufio.Reader, so it stops exactly at
		// the end of the compressed data.
		fr := flate.NewReader(z.br)
		er.src = fr
		er.closer = fr
	default:
		return nil, errors.Wrapf(ErrAlgorithm, "%s: method %d", e.Name, e.Method)
	}
	return er, nil
}

type entryReader struct {
	z      *Reader
	entry  *Entry
	src    io.Reader
	closer io.Closer
	hash   hash.Hash32
	n      uint64
	err    error
}

func (r *entryReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.src.Read(p)
	r.hash.Write(p[:n])
	r.n += uint64(n)
	if err == io.EOF {
		err = r.finish()
		if err == nil {
			err = io.EOF
		}
	} else if err != nil {
		err = errors.Wrapf(unexpected(err), "reading %s", r.entry.Name)
	}
	r.err = err
	return n, err
}

func (r *entryReader) finish() error {
	if r.closer != nil {
		_ = r.closer.Close()
	}
	e := r.entry
	if e.Flags&flagDataDescriptor != 0 {
		if err := r.readDescriptor(); err != nil {
			return err
		}
	} else if e.Method == Store && r.n != e.CompressedSize {
		return errors.Wrapf(io.ErrUnexpectedEOF, "reading %s", e.Name)
	}
	if r.n != e.UncompressedSize {
		return errors.Wrapf(ErrFormat, "%s: size %d, header says %d", e.Name, r.n, e.UncompressedSize)
	}
	if r.hash.Sum32() != e.CRC32 {
		return errors.Wrapf(ErrChecksum, "%s", e.Name)
	}
	return nil
}

// readDescriptor reads the data descriptor that follows an entry written
// without sizes. Its signature is optional.
func (r *entryReader) readDescriptor() error {
	br := r.z.br
	var buf [16]byte
	if _, err := io.ReadFull(br, buf[:12]); err != nil {
		return errors.Wrapf(unexpected(err), "reading data descriptor of %s", r.entry.Name)
	}
	le := binary.LittleEndian
	fields := buf[:12]
	if le.Uint32(buf[:]) == dataDescriptorSig {
		if _, err := io.ReadFull(br, buf[12:16]); err != nil {
			return errors.Wrapf(unexpected(err), "reading data descriptor of %s", r.entry.Name)
		}
		fields = buf[4:16]
	}
	r.entry.CRC32 = le.Uint32(fields)
	r.entry.CompressedSize = uint64(le.Uint32(fields[4:]))
	r.entry.UncompressedSize = uint64(le.Uint32(fields[8:]))
	return nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
