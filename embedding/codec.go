// File: embedding/codec.go
//
// codec serializes []float32 vectors to/from a compact little-endian
// byte form and zstd-compresses the result, optionally against a
// trained dictionary. Round-tripping is bit-exact: the float bits are
// carried through unchanged, never re-quantized.
package embedding

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
)

// codec holds the zstd encoder/decoder pair for one dictionary
// generation. Rotating the dictionary (retraining) means building a
// new codec; old compressed records stay decodable only as long as
// the dictionary they were written against is kept (see Cache.Train).
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec(dict []byte) (*codec, error) {
	var encOpts []zstd.EOption
	var decOpts []zstd.DOption
	if len(dict) > 0 {
		// dict is raw sample content, not a formatted zstd dictionary,
		// so it is registered under a fixed id via the Raw options.
		encOpts = append(encOpts, zstd.WithEncoderDictRaw(1, dict))
		decOpts = append(decOpts, zstd.WithDecoderDictRaw(1, dict))
	}
	enc, err := zstd.NewWriter(nil, encOpts...)
	if err != nil {
		return nil, fmt.Errorf("embedding: new zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, decOpts...)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("embedding: new zstd decoder: %w", err)
	}
	return &codec{enc: enc, dec: dec}, nil
}

// encodeVector serializes vec to little-endian float32 bytes, then
// compresses it.
func (c *codec) encodeVector(vec []float32) []byte {
	raw := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(f))
	}
	return c.enc.EncodeAll(raw, nil)
}

// decodeVector reverses encodeVector exactly: every float's bit
// pattern survives the round trip unchanged.
func (c *codec) decodeVector(compressed []byte) ([]float32, error) {
	raw, err := c.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("embedding: zstd decode: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("embedding: decoded length %d is not a multiple of 4", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, nil
}

func (c *codec) close() {
	c.enc.Close()
	c.dec.Close()
}
