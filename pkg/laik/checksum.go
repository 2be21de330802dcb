package laik

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// fingerprint hashes a frozen BorderArray's entries with blake2b so
// Partitioning.validate can cheaply detect "inputs unchanged" (the
// spec's idempotency clause for validate) without re-running the
// partitioner, and so the transfer planner can assert two workers
// agree on the same target partitioning before exchanging data.
func fingerprint(ba *BorderArray) [blake2b.Size256]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors on a bad key length, and we pass
		// none; this is unreachable.
		panic(err)
	}
	var scratch [8]byte
	for i := 0; i < ba.Count(); i++ {
		s := ba.Get(i)
		binary.LittleEndian.PutUint64(scratch[:], uint64(s.Task))
		h.Write(scratch[:])
		binary.LittleEndian.PutUint64(scratch[:], uint64(s.MapNo))
		h.Write(scratch[:])
		for _, v := range [...]int{s.Range.From.I0, s.Range.From.I1, s.Range.From.I2, s.Range.To.I0, s.Range.To.I1, s.Range.To.I2} {
			binary.LittleEndian.PutUint64(scratch[:], uint64(v))
			h.Write(scratch[:])
		}
	}
	var out [blake2b.Size256]byte
	copy(out[:], h.Sum(nil))
	return out
}
