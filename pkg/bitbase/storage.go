package bitbase

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the codec applied independently to every
// cluster. None stores clusters as raw two-bit-per-position arrays;
// the compressed codecs trade decode cost for file size on disk and
// in the cluster cache.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionS2   Compression = 1
	CompressionZstd Compression = 2
)

const (
	magic               = "QBTB"
	fileVersion  uint16 = 1
	headerSize          = 4 + 2 + 4 + 8 + 4 + 1 + 4 // magic,version,signature,sizeInBits,clusterSize,compression,numClusters
	DefaultClusterSize  = 16384
)

// Header mirrors the on-disk layout before the offsets table and raw
// cluster bytes: magic "QBTB", version, a hash of the signature string,
// the uncompressed bit count, cluster size in elements and the codec.
type Header struct {
	Signature    Signature
	SizeInBits   uint64
	ClusterSize  uint32
	Compression  Compression
	NumClusters  uint32
}

// Value is a two-bit outcome. Unknown marks illegal placements and
// positions the generator left unresolved; it is written to disk like
// the other values.
type Value uint8

const (
	ValueUnknown Value = 0
	ValueLoss    Value = 1
	ValueDraw    Value = 2
	ValueWin     Value = 3
)

func signatureHash(sig Signature) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(sig); i++ {
		h ^= uint32(sig[i])
		h *= 16777619
	}
	return h
}

// WriteFile packs values (one Value per index, len(values) == number of
// indices the signature's PieceList can represent) into clusterSize-element
// clusters, compresses each independently and writes the §6 file format.
func WriteFile(path string, sig Signature, values []Value, clusterSize uint32, compression Compression) error {
	if clusterSize == 0 {
		clusterSize = DefaultClusterSize
	}
	var packed = packValues(values)
	var elementsPerCluster = clusterSize
	var bytesPerCluster = (elementsPerCluster*2 + 7) / 8
	var numClusters = uint32((len(packed) + int(bytesPerCluster) - 1) / int(bytesPerCluster))
	if numClusters == 0 {
		numClusters = 1
	}

	var compressed = make([][]byte, numClusters)
	for i := uint32(0); i < numClusters; i++ {
		var lo = int(i) * int(bytesPerCluster)
		var hi = lo + int(bytesPerCluster)
		if hi > len(packed) {
			hi = len(packed)
		}
		var raw = packed[lo:hi]
		compressed[i] = compressCluster(raw, compression)
	}

	var offsets = make([]uint64, numClusters+1)
	var pos = uint64(headerSize) + uint64(numClusters+1)*8
	for i, c := range compressed {
		offsets[i] = pos
		pos += uint64(len(c))
	}
	offsets[numClusters] = pos

	var f, err = os.Create(path)
	if err != nil {
		return fmt.Errorf("bitbase: create %s: %w", path, err)
	}
	defer f.Close()

	var w = bufio.NewWriter(f)
	if err := writeHeader(w, Header{
		Signature:   sig,
		SizeInBits:  uint64(len(values)) * 2,
		ClusterSize: elementsPerCluster,
		Compression: compression,
		NumClusters: numClusters,
	}); err != nil {
		return err
	}
	for _, off := range offsets {
		if err := binary.Write(w, binary.LittleEndian, off); err != nil {
			return err
		}
	}
	for _, c := range compressed {
		if _, err := w.Write(c); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeHeader(w io.Writer, h Header) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return err
	}
	for _, v := range []any{fileVersion, signatureHash(h.Signature), h.SizeInBits, h.ClusterSize, uint8(h.Compression), h.NumClusters} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readHeader(r io.Reader) (Header, error) {
	var buf = make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, err
	}
	if string(buf) != magic {
		return Header{}, fmt.Errorf("bitbase: bad magic %q", buf)
	}
	var h Header
	var version uint16
	var sigHash uint32
	var compression uint8
	for _, v := range []any{&version, &sigHash, &h.SizeInBits, &h.ClusterSize, &compression, &h.NumClusters} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return Header{}, err
		}
	}
	if version != fileVersion {
		return Header{}, fmt.Errorf("bitbase: unsupported version %d", version)
	}
	h.Compression = Compression(compression)
	return h, nil
}

func packValues(values []Value) []byte {
	var out = make([]byte, (len(values)*2+7)/8)
	for i, v := range values {
		var byteIdx = i / 4
		var shift = uint((i % 4) * 2)
		out[byteIdx] |= byte(v) << shift
	}
	return out
}

func unpackValue(data []byte, i int) Value {
	var byteIdx = i / 4
	if byteIdx >= len(data) {
		return ValueUnknown
	}
	var shift = uint((i % 4) * 2)
	return Value((data[byteIdx] >> shift) & 0x3)
}

func compressCluster(raw []byte, c Compression) []byte {
	switch c {
	case CompressionS2:
		return s2.Encode(nil, raw)
	case CompressionZstd:
		var enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		defer enc.Close()
		return enc.EncodeAll(raw, nil)
	default:
		return raw
	}
}

func decompressCluster(data []byte, c Compression, rawSize int) ([]byte, error) {
	switch c {
	case CompressionS2:
		return s2.Decode(nil, data)
	case CompressionZstd:
		var dec, err = zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, make([]byte, 0, rawSize))
	default:
		return data, nil
	}
}

// File is an open bitbase ready for random-access probing: it keeps the
// header and offset table in memory and serves individual values through
// a bounded cluster cache, decompressing a cluster at most once per
// eviction window. src is an *os.File for OpenFile and a *bytes.Reader
// for LoadEmbedded; both satisfy the random-access io.ReaderAt the
// cluster reader needs.
type File struct {
	path    string
	header  Header
	offsets []uint64
	cache   *clusterCache
	mu      sync.Mutex
	src     io.ReaderAt
	closer  io.Closer // nil for an embedded, in-memory source
}

// OpenFile opens a .btb file and wires a bounded LRU cluster cache
// (capacity cacheClusters, §4.B default 511) in front of it.
func OpenFile(path string, cacheClusters int) (*File, error) {
	var f, err = os.Open(path)
	if err != nil {
		return nil, err
	}
	var header, offsets, herr = readHeaderAndOffsets(bufio.NewReader(f))
	if herr != nil {
		f.Close()
		return nil, herr
	}
	return &File{
		path:    path,
		header:  header,
		offsets: offsets,
		cache:   newClusterCache(defaultCacheClusters(cacheClusters)),
		src:     f,
		closer:  f,
	}, nil
}

func defaultCacheClusters(cacheClusters int) int {
	if cacheClusters <= 0 {
		return 511
	}
	return cacheClusters
}

// LoadEmbedded attaches a bitbase whose bytes already sit in memory —
// typically a go:embed blob compiled into the binary — instead of
// reading them from a path on disk, the in-memory counterpart of
// OpenFile for the §6 compiled-in header variant. The §6 layout (magic,
// version, signature hash, offsets table, cluster bytes) is read
// identically either way; only the backing io.ReaderAt differs.
func LoadEmbedded(data []byte, cacheClusters int) (*File, error) {
	var header, offsets, err = readHeaderAndOffsets(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &File{
		header:  header,
		offsets: offsets,
		cache:   newClusterCache(defaultCacheClusters(cacheClusters)),
		src:     bytes.NewReader(data),
	}, nil
}

func readHeaderAndOffsets(r io.Reader) (Header, []uint64, error) {
	var h, err = readHeader(r)
	if err != nil {
		return Header{}, nil, err
	}
	var offsets = make([]uint64, h.NumClusters+1)
	for i := range offsets {
		if err := binary.Read(r, binary.LittleEndian, &offsets[i]); err != nil {
			return Header{}, nil, err
		}
	}
	return h, offsets, nil
}

func (bf *File) Close() error {
	if bf.closer == nil {
		return nil
	}
	return bf.closer.Close()
}

// Probe returns the Value stored at index, reading its cluster through
// the cache on a miss.
func (bf *File) Probe(index uint64) (Value, error) {
	var bytesPerCluster = (bf.header.ClusterSize*2 + 7) / 8
	var elementsPerCluster = uint64(bf.header.ClusterSize)
	var clusterIndex = uint32(index / elementsPerCluster)
	var withinCluster = int(index % elementsPerCluster)

	if clusterIndex >= bf.header.NumClusters {
		return ValueUnknown, fmt.Errorf("bitbase: index %d out of range", index)
	}

	var data, ok = bf.cache.get(clusterIndex)
	if !ok {
		var err error
		data, err = bf.readCluster(clusterIndex, int(bytesPerCluster))
		if err != nil {
			return ValueUnknown, err
		}
		bf.cache.put(clusterIndex, data)
	}
	return unpackValue(data, withinCluster), nil
}

func (bf *File) readCluster(clusterIndex uint32, rawSize int) ([]byte, error) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	var lo = bf.offsets[clusterIndex]
	var hi = bf.offsets[clusterIndex+1]
	var buf = make([]byte, hi-lo)
	if _, err := bf.src.ReadAt(buf, int64(lo)); err != nil {
		return nil, err
	}
	return decompressCluster(buf, bf.header.Compression, rawSize)
}

// clusterCache is a fixed-capacity LRU keyed by cluster index, grounded
// on the teacher pack's bounded cache pattern for transposition storage
// but holding decompressed cluster byte slices instead of search entries.
type clusterCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint32][]byte
	order    []uint32
}

func newClusterCache(capacity int) *clusterCache {
	return &clusterCache{
		capacity: capacity,
		entries:  make(map[uint32][]byte, capacity),
	}
}

func (c *clusterCache) get(key uint32) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var v, ok = c.entries[key]
	if ok {
		c.touch(key)
	}
	return v, ok
}

func (c *clusterCache) put(key uint32, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		var oldest = c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = data
	c.touch(key)
}

func (c *clusterCache) touch(key uint32) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, key)
}
