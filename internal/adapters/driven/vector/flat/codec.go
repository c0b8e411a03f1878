package flat

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// Snapshot layout, little-endian:
//
//	magic   [4]byte "DQVI"
//	version uint16
//	dim     uint32
//	count   uint32
//	count × { idLen uint32, id []byte, flags uint8, dim × float32 bits }
//	crc32   uint32 (IEEE, over everything before it)
const (
	snapshotMagic   = "DQVI"
	snapshotVersion = 1

	flagTombstoned = 1 << 0

	headerSize  = 4 + 2 + 4 + 4
	trailerSize = 4
)

func encodeSnapshot(dimension int, entries []entry) []byte {
	size := headerSize + trailerSize
	for i := range entries {
		size += 4 + len(entries[i].chunkID) + 1 + 4*dimension
	}

	buf := make([]byte, 0, size)
	buf = append(buf, snapshotMagic...)
	buf = binary.LittleEndian.AppendUint16(buf, snapshotVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dimension))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(entries)))

	for i := range entries {
		e := &entries[i]
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.chunkID)))
		buf = append(buf, e.chunkID...)

		var flags byte
		if e.dead {
			flags |= flagTombstoned
		}
		buf = append(buf, flags)

		for _, x := range e.vector {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
		}
	}

	return binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))
}

func decodeSnapshot(data []byte) (int, []entry, error) {
	if len(data) < headerSize+trailerSize {
		return 0, nil, corrupt("truncated header")
	}

	body := data[:len(data)-trailerSize]
	want := binary.LittleEndian.Uint32(data[len(data)-trailerSize:])
	if crc32.ChecksumIEEE(body) != want {
		return 0, nil, corrupt("checksum mismatch")
	}

	r := reader{buf: body}
	if string(r.next(4)) != snapshotMagic {
		return 0, nil, corrupt("bad magic")
	}
	if v := r.u16(); v != snapshotVersion {
		return 0, nil, corrupt(fmt.Sprintf("unsupported version %d", v))
	}

	dimension := int(r.u32())
	count := int(r.u32())
	if count > 0 && dimension == 0 {
		return 0, nil, corrupt("entries without dimension")
	}
	if count > 0 && 4*dimension > len(body) {
		return 0, nil, corrupt("dimension exceeds snapshot size")
	}

	entries := make([]entry, 0, min(count, len(body)))
	seen := make(map[string]struct{}, min(count, len(body)))

	for i := 0; i < count; i++ {
		idLen := int(r.u32())
		id := string(r.next(idLen))
		flags := r.u8()

		vector := make([]float32, dimension)
		for j := range vector {
			vector[j] = math.Float32frombits(r.u32())
		}
		if r.err {
			return 0, nil, corrupt(fmt.Sprintf("truncated entry %d", i))
		}
		if _, dup := seen[id]; dup {
			return 0, nil, corrupt(fmt.Sprintf("duplicate chunk id %q", id))
		}
		seen[id] = struct{}{}

		entries = append(entries, entry{
			chunkID: id,
			vector:  vector,
			dead:    flags&flagTombstoned != 0,
		})
	}

	if r.err {
		return 0, nil, corrupt("truncated body")
	}
	if r.off != len(body) {
		return 0, nil, corrupt("trailing bytes")
	}

	return dimension, entries, nil
}

func corrupt(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrCorruptSnapshot, reason)
}

// reader is a bounds-checked cursor; after the first short read err is set
// and every further read returns zero values.
type reader struct {
	buf []byte
	off int
	err bool
}

func (r *reader) next(n int) []byte {
	if r.err || n < 0 || len(r.buf)-r.off < n {
		r.err = true
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() byte {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.next(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}
