// Package ledger implements the tamper-evident append-only ledger engine:
// record admission, block construction, proof-of-work and chain validation.
package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"strings"
	"time"

	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

// GenesisPrevHash is the sentinel parent digest of the genesis block.
var GenesisPrevHash = strings.Repeat("0", sha256.Size*2)

// Block is an ordered batch of records plus linkage metadata. Immutable
// once appended to a chain.
type Block struct {
	Index     uint64         `json:"index"`
	Timestamp int64          `json:"timestamp"`
	Records   []model.Record `json:"records"`
	PrevHash  string         `json:"previous_hash"`
	Nonce     uint64         `json:"nonce"`
	Hash      string         `json:"hash"`
}

// Genesis returns the fixed first block. It is fully deterministic so that
// two fresh chains are identical, and it is not subject to proof-of-work.
func Genesis() Block {
	b := Block{Index: 0, Timestamp: 0, PrevHash: GenesisPrevHash}
	b.Hash = b.ComputeHash()
	return b
}

// NewCandidate builds an unmined block over the given payload. The hash is
// left unset until a nonce has been found.
func NewCandidate(index uint64, ts time.Time, records []model.Record, prevHash string) Block {
	return Block{
		Index:     index,
		Timestamp: ts.Unix(),
		Records:   records,
		PrevHash:  prevHash,
	}
}

// ComputeHash derives the block digest from an explicit, fixed field order:
// index, timestamp, records (each in declaration order), previous hash,
// nonce. Variable-length fields are length-prefixed so the encoding is
// unambiguous and reproducible byte for byte.
func (b Block) ComputeHash() string {
	h := sha256.New()
	writeUint64(h, b.Index)
	writeUint64(h, uint64(b.Timestamp))
	writeUint64(h, uint64(len(b.Records)))
	for _, r := range b.Records {
		writeRecord(h, r)
	}
	writeString(h, b.PrevHash)
	writeUint64(h, b.Nonce)
	return hex.EncodeToString(h.Sum(nil))
}

func writeRecord(h hash.Hash, r model.Record) {
	writeString(h, r.ID)
	writeString(h, r.Description)
	writeString(h, string(r.Severity))
	if r.CVSSScore != nil {
		h.Write([]byte{1})
		writeUint64(h, math.Float64bits(*r.CVSSScore))
	} else {
		h.Write([]byte{0})
	}
	writeUint64(h, uint64(len(r.References)))
	for _, ref := range r.References {
		writeString(h, ref.URL)
		writeString(h, ref.Source)
	}
	writeString(h, r.Source)
	writeUint64(h, uint64(r.ReportedAt.UnixNano()))
}

func writeUint64(h hash.Hash, n uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	h.Write(buf[:])
}

func writeString(h hash.Hash, s string) {
	writeUint64(h, uint64(len(s)))
	h.Write([]byte(s))
}
