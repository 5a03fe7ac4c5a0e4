package bloomset

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// Persisted layout: a little-endian uint64 giving the bit count, followed
// by bitCount/8 bytes of canonical bit buffer (bit i at byte i/8 under mask
// 1<<(i%8), trailing pad bits zero). Total size bitCount/8 + 8 bytes.
//
// The probe count and the hasher are deliberately not stored. The loader
// re-derives the probe count from the same (expected items, false positive
// rate) pair the writer was constructed with and must be handed the same
// hasher; supplying different values silently degrades lookup accuracy
// rather than failing. That sharp edge is the price of a minimal format.
const headerBytes = 8

// Shared zstd encoder/decoder for the compressed variant - both are safe
// for concurrent use and expensive to construct, so they are allocated
// once.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// checkStableHasher rejects persistence for filters on the process-salted
// default hasher, whose probe positions cannot be reproduced by any other
// process.
func (f *Filter) checkStableHasher() error {
	if f.hasher == defaultHasher {
		return fmt.Errorf("bloomset: cannot persist: %w", ErrUnstableHasher)
	}
	return nil
}

func checkLoadHasher(hasher Hasher) error {
	if hasher == nil {
		return fmt.Errorf("bloomset: a hasher is required to load a filter: %w", ErrInvalidConfiguration)
	}
	if hasher == defaultHasher {
		return fmt.Errorf("bloomset: cannot load: %w", ErrUnstableHasher)
	}
	return nil
}

// WriteTo writes the filter onto _stream_ in the canonical layout and
// returns the number of bytes written. It can be used to write to disk or
// to the network. Redis-backed filters are fetched and written in the same
// layout.
func (f *Filter) WriteTo(stream io.Writer) (int64, error) {
	if err := f.checkStableHasher(); err != nil {
		return 0, err
	}
	buf, err := f.bits.bytes()
	if err != nil {
		return 0, err
	}
	header := make([]byte, headerBytes)
	binary.LittleEndian.PutUint64(header, f.size)
	n, err := stream.Write(header)
	if err != nil {
		return int64(n), err
	}
	m, err := stream.Write(buf)
	return int64(n + m), err
}

// LoadFilter reads a filter in the canonical layout from _stream_. The
// loader must be given the (numItems, errorRate) pair and the hasher the
// writer was constructed with; the probe count is re-derived from them.
// The loaded filter is always memory backed.
func LoadFilter(stream io.Reader, numItems uint64, errorRate float64, hasher Hasher) (*Filter, error) {
	if err := checkLoadHasher(hasher); err != nil {
		return nil, err
	}
	_, numProbes, err := EstimateParameters(numItems, errorRate)
	if err != nil {
		return nil, err
	}
	header := make([]byte, headerBytes)
	if _, err := io.ReadFull(stream, header); err != nil {
		return nil, readError("filter header", err)
	}
	size := binary.LittleEndian.Uint64(header)
	if size == 0 || size%8 != 0 {
		return nil, fmt.Errorf("bloomset: bit count %d is not a positive multiple of 8: %w", size, ErrInvalidConfiguration)
	}
	buf := make([]byte, size/8)
	if _, err := io.ReadFull(stream, buf); err != nil {
		return nil, readError("bit buffer", err)
	}
	bits := NewBitArrayMem(size)
	if err := bits.setBytes(buf); err != nil {
		return nil, err
	}
	return &Filter{size, numProbes, bits, hasher}, nil
}

func readError(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("bloomset: %s: %w", what, ErrTruncated)
	}
	return fmt.Errorf("bloomset: %s: %w", what, err)
}

// Save writes the filter to the file at _path_ in the canonical layout.
func (f *Filter) Save(path string) error {
	if err := f.checkStableHasher(); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadFilterFromFile reads a filter saved by Save.
func LoadFilterFromFile(path string, numItems uint64, errorRate float64, hasher Hasher) (*Filter, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return LoadFilter(file, numItems, errorRate, hasher)
}

// Bytes returns the canonical layout as an in-memory buffer.
func (f *Filter) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromBytes reads a filter from a buffer produced by Bytes.
func FromBytes(data []byte, numItems uint64, errorRate float64, hasher Hasher) (*Filter, error) {
	return LoadFilter(bytes.NewReader(data), numItems, errorRate, hasher)
}

// WriteToCompressed writes the canonical layout through zstd. Bloom
// filters far below capacity are mostly zero bits and compress well.
func (f *Filter) WriteToCompressed(stream io.Writer) (int64, error) {
	raw, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := stream.Write(zstdEncoder.EncodeAll(raw, nil))
	return int64(n), err
}

// LoadFilterCompressed reads a filter written by WriteToCompressed.
func LoadFilterCompressed(stream io.Reader, numItems uint64, errorRate float64, hasher Hasher) (*Filter, error) {
	compressed, err := io.ReadAll(stream)
	if err != nil {
		return nil, readError("compressed filter", err)
	}
	raw, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("bloomset: zstd: %w", err)
	}
	return FromBytes(raw, numItems, errorRate, hasher)
}

// internal type used to marshal/unmarshal Filter
type filterJSON struct {
	M uint64 `json:"m"`
	K uint64 `json:"k"`
	B []byte `json:"b"`
}

// Export JSON-marshals the filter. Unlike the canonical layout this codec
// is self-describing: the probe count travels with the bits. The hasher
// still does not and must match on Import.
func (f *Filter) Export() ([]byte, error) {
	if err := f.checkStableHasher(); err != nil {
		return nil, err
	}
	buf, err := f.bits.bytes()
	if err != nil {
		return nil, err
	}
	return json.Marshal(filterJSON{f.size, f.numProbes, buf})
}

// Import JSON-unmarshals _data_ into the filter, replacing its size, probe
// count and bits. The backend and hasher are kept.
func (f *Filter) Import(data []byte) error {
	if err := f.checkStableHasher(); err != nil {
		return err
	}
	var value filterJSON
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	if value.M == 0 || value.M%8 != 0 || value.K == 0 {
		return fmt.Errorf("bloomset: imported size %d and probes %d are invalid: %w", value.M, value.K, ErrInvalidConfiguration)
	}
	if uint64(len(value.B)) != value.M/8 {
		return fmt.Errorf("bloomset: imported buffer is %d bytes, want %d: %w", len(value.B), value.M/8, ErrTruncated)
	}
	var bits IBitArray
	if isBitArrayMem(f.bits) {
		bits = NewBitArrayMem(value.M)
	} else {
		redisBits, err := NewBitArrayRedis(value.M)
		if err != nil {
			return err
		}
		bits = redisBits
	}
	if err := bits.setBytes(value.B); err != nil {
		return err
	}
	f.size, f.numProbes, f.bits = value.M, value.K, bits
	return nil
}

// SaveToRedis stores the metadata of a redis-backed filter under a fresh
// key and returns that key, from which LoadRedisFilter can rebuild the
// filter. The bits themselves already live in redis.
func (f *Filter) SaveToRedis() (string, error) {
	if err := f.checkStableHasher(); err != nil {
		return "", err
	}
	redisBits, ok := f.bits.(*BitArrayRedis)
	if !ok {
		return "", fmt.Errorf("bloomset: only redis-backed filters can be saved to redis: %w", ErrIncompatibleFilters)
	}
	metadataKey := generateRandomString(16)
	metadata := map[string]interface{}{
		"size":        f.size,
		"numProbes":   f.numProbes,
		"bitArrayKey": redisBits.getKey(),
	}
	err := getRedisClient().HSet(context.Background(), metadataKey, metadata).Err()
	if err != nil {
		return "", fmt.Errorf("bloomset: error while saving filter metadata to redis: %w", err)
	}
	return metadataKey, nil
}

// LoadRedisFilter rebuilds a redis-backed filter from the metadata key
// returned by SaveToRedis. The hasher must be the one the writer used.
func LoadRedisFilter(metadataKey string, hasher Hasher) (*Filter, error) {
	if err := checkLoadHasher(hasher); err != nil {
		return nil, err
	}
	values, err := getRedisClient().HGetAll(context.Background(), metadataKey).Result()
	if err != nil {
		return nil, fmt.Errorf("bloomset: error while fetching filter metadata from redis: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("bloomset: no filter metadata at key %q: %w", metadataKey, ErrTruncated)
	}
	size, err := strconv.ParseUint(values["size"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bloomset: bad size in filter metadata: %w", err)
	}
	numProbes, err := strconv.ParseUint(values["numProbes"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bloomset: bad probe count in filter metadata: %w", err)
	}
	bits, err := fromRedisKey(values["bitArrayKey"])
	if err != nil {
		return nil, err
	}
	return NewFilterWithBitArray(size, numProbes, bits, hasher)
}
