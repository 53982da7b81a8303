package pvm

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"
)

// ProgramCache stores the deblobbed (code, bitmask, jumpTable) triple of each
// program, keyed by the blake2b-256 hash of the program's raw preimage bytes,
// since a real node re-runs the same service code across many invocations per
// block. Purely additive:
// a Machine never consults one unless a caller wires it in via
// ResetGenericCached, so uncached callers see identical behavior.
type ProgramCache struct {
	cache *lru.Cache[[32]byte, *decodedProgram]
}

type decodedProgram struct {
	code      []byte
	bitmask   []byte
	jumpTable []uint32
}

// NewProgramCache constructs a cache holding up to size decoded programs.
func NewProgramCache(size int) (*ProgramCache, error) {
	c, err := lru.New[[32]byte, *decodedProgram](size)
	if err != nil {
		return nil, err
	}
	return &ProgramCache{cache: c}, nil
}

// ResetGenericCached behaves like ResetGeneric but consults cache for the
// already-deblobbed (code, bitmask, jumpTable) triple and, on a hit, installs
// that triple in place of the freshly decoded one. The preimage is still
// decoded in full on every call, its deblob included, so a hit does not skip
// any parsing.
func (m *Machine) ResetGenericCached(cache *ProgramCache, programPreimage []byte, regs104 []byte, gas int64) error {
	if cache == nil {
		return m.ResetGeneric(programPreimage, regs104, gas)
	}

	key := blake2b.Sum256(programPreimage)
	if cached, ok := cache.cache.Get(key); ok {
		_, prog, err := DecodePreimage(programPreimage)
		if err != nil {
			return err
		}
		prog.Code = &Deblob{Code: cached.code, Bitmask: cached.bitmask, JumpTable: cached.jumpTable}
		if err := loadProgramBlob(m, prog, nil); err != nil {
			return err
		}
	} else {
		_, prog, err := DecodePreimage(programPreimage)
		if err != nil {
			return err
		}
		if err := loadProgramBlob(m, prog, nil); err != nil {
			return err
		}
		cache.cache.Add(key, &decodedProgram{code: prog.Code.Code, bitmask: prog.Code.Bitmask, jumpTable: prog.Code.JumpTable})
	}

	if err := m.SetRegisters(regs104); err != nil {
		return err
	}
	m.Gas = gas
	return nil
}
