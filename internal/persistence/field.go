package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/mini-colony/internal/pheromone"
)

// FieldValues holds every channel's concentration per node, indexed
// [channel][node].
type FieldValues [pheromone.K][]float32

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDec, zstdErr = zstd.NewReader(nil)
	})
	return zstdEnc, zstdDec, zstdErr
}

// encodeField packs the node count then each channel's values as
// little-endian float32, zstd compressed.
func encodeField(v FieldValues) ([]byte, error) {
	enc, _, err := codecs()
	if err != nil {
		return nil, err
	}
	n := len(v[0])
	var buf bytes.Buffer
	buf.Grow(4 + pheromone.K*n*4)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(n))
	for ch := range v {
		if len(v[ch]) != n {
			return nil, fmt.Errorf("channel %s has %d nodes, want %d", pheromone.Channel(ch), len(v[ch]), n)
		}
		for _, x := range v[ch] {
			_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(x))
		}
	}
	return enc.EncodeAll(buf.Bytes(), nil), nil
}

func decodeField(blob []byte) (FieldValues, error) {
	var v FieldValues
	_, dec, err := codecs()
	if err != nil {
		return v, err
	}
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return v, fmt.Errorf("zstd: %w", err)
	}
	if len(raw) < 4 {
		return v, fmt.Errorf("field blob too short")
	}
	n := int(binary.LittleEndian.Uint32(raw))
	raw = raw[4:]
	if len(raw) != pheromone.K*n*4 {
		return v, fmt.Errorf("field blob holds %d bytes, want %d", len(raw), pheromone.K*n*4)
	}
	for ch := range v {
		v[ch] = make([]float32, n)
		for i := range v[ch] {
			v[ch][i] = math.Float32frombits(binary.LittleEndian.Uint32(raw))
			raw = raw[4:]
		}
	}
	return v, nil
}

// SaveField stores a compressed copy of the pheromone field at tick.
func (db *DB) SaveField(runID string, tick uint64, v FieldValues) error {
	blob, err := encodeField(v)
	if err != nil {
		return fmt.Errorf("encode field: %w", err)
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO field_snapshots (run_id, tick, nodes, data) VALUES (?, ?, ?, ?)",
		runID, tick, len(v[0]), blob,
	)
	if err != nil {
		return fmt.Errorf("insert field tick %d: %w", tick, err)
	}
	return nil
}

// LoadField returns the latest field snapshot of a run at or before tick.
func (db *DB) LoadField(runID string, tick uint64) (uint64, FieldValues, error) {
	var row struct {
		Tick uint64 `db:"tick"`
		Data []byte `db:"data"`
	}
	err := db.conn.Get(&row,
		"SELECT tick, data FROM field_snapshots WHERE run_id = ? AND tick <= ? ORDER BY tick DESC LIMIT 1",
		runID, tick,
	)
	if err != nil {
		return 0, FieldValues{}, err
	}
	v, err := decodeField(row.Data)
	return row.Tick, v, err
}
