package pvm

// Paged RAM: a sparse 4KiB-page address space with per-page access rights
// and deterministic fault semantics.
//
// Grounded on other_examples' riscv_memory.go (sparse map[pageIndex][]byte,
// allocate-on-demand getPage, byte/word helpers, Reset) generalized to carry a
// parallel access-rights map the way bassosimone-risc32's page-table doc
// comment describes (R/W/X flags per entry), here READ/WRITE/NONE per page.

const (
	// PageSize is the 4KiB page-alignment unit (2^12).
	PageSize = 4096
	// PageShift is log2(PageSize).
	PageShift = 12
	// NumPages is the number of 4KiB pages spanning the full 32-bit address space.
	NumPages = 1 << 20

	// Zone is the 2^16-byte alignment unit used for program region layout.
	Zone = 1 << 16
	// InitInputSize is the reserved argument-segment size (2^24).
	InitInputSize = 1 << 24

	// HaltAddr is the program-counter value that signals a clean HALT.
	HaltAddr uint32 = 0xFFFFFFFF - Zone + 1 // 2^32 - 2^16
	// StackEnd is the upper (exclusive) bound of the stack segment.
	StackEnd uint32 = 0xFFFFFFFF - 2*Zone - InitInputSize + 1 // 2^32 - 2*Z - I
	// ArgsStart is the start of the argument segment.
	ArgsStart uint32 = 0xFFFFFFFF - Zone - InitInputSize + 1 // 2^32 - Z - I
)

// AccessType is the access right granted to a page.
type AccessType byte

const (
	AccessNone AccessType = iota
	AccessRead
	AccessWrite
)

// RAM is the paged memory model shared by the interpreter and the program
// loader. It exclusively owns its page table and page contents; callers
// reach it only through the methods below.
type RAM struct {
	pages              map[uint32]*[PageSize]byte
	access             map[uint32]AccessType
	currentHeapPointer uint32
}

// NewRAM constructs an empty RAM with no allocated pages.
func NewRAM() *RAM {
	r := &RAM{}
	r.Reset()
	return r
}

// Reset clears all pages and access entries and zeroes the heap pointer.
func (r *RAM) Reset() {
	r.pages = make(map[uint32]*[PageSize]byte)
	r.access = make(map[uint32]AccessType)
	r.currentHeapPointer = 0
}

func pageIndexOf(addr uint32) uint32 {
	return addr >> PageShift
}

func pageStartOf(addr uint32) uint32 {
	return (addr >> PageShift) << PageShift
}

func (r *RAM) accessOf(pageIdx uint32) AccessType {
	return r.access[pageIdx]
}

func (r *RAM) getOrCreatePage(pageIdx uint32) *[PageSize]byte {
	if p, ok := r.pages[pageIdx]; ok {
		return p
	}
	p := &[PageSize]byte{}
	r.pages[pageIdx] = p
	return p
}

// pagesSpanning returns the inclusive range of page indices touched by
// [addr, addr+length). The caller must have already checked for 32-bit
// overflow of addr+length.
func pagesSpanning(addr, length uint32) (first, last uint32) {
	first = pageIndexOf(addr)
	last = pageIndexOf(addr + length - 1)
	return
}

// Read returns the length bytes at addr if every touched page has READ or
// WRITE access. Otherwise it returns a *Fault naming the page-start address of
// the lowest offending page. addr+len overflowing 2^32 faults at addr itself.
func (r *RAM) Read(addr uint32, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	if uint64(addr)+uint64(length) > 1<<32 {
		return nil, &Fault{Addr: addr}
	}
	first, last := pagesSpanning(addr, length)
	for p := first; p <= last; p++ {
		if r.accessOf(p) == AccessNone {
			return nil, &Fault{Addr: p << PageShift}
		}
	}
	out := make([]byte, length)
	r.copyOut(addr, out)
	return out, nil
}

func (r *RAM) copyOut(addr uint32, dst []byte) {
	n := uint32(len(dst))
	off := uint32(0)
	for off < n {
		pageIdx := pageIndexOf(addr + off)
		pageOff := (addr + off) & (PageSize - 1)
		chunk := PageSize - pageOff
		remaining := n - off
		if chunk > remaining {
			chunk = remaining
		}
		if page, ok := r.pages[pageIdx]; ok {
			copy(dst[off:off+chunk], page[pageOff:pageOff+chunk])
		}
		off += chunk
	}
}

// Write stores data at addr if every touched page has WRITE access, otherwise
// it returns a *Fault and leaves memory unchanged (no partial writes).
func (r *RAM) Write(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	length := uint32(len(data))
	if uint64(addr)+uint64(length) > 1<<32 {
		return &Fault{Addr: addr}
	}
	first, last := pagesSpanning(addr, length)
	for p := first; p <= last; p++ {
		if r.accessOf(p) != AccessWrite {
			return &Fault{Addr: p << PageShift}
		}
	}
	r.copyIn(addr, data)
	return nil
}

func (r *RAM) copyIn(addr uint32, src []byte) {
	n := uint32(len(src))
	off := uint32(0)
	for off < n {
		pageIdx := pageIndexOf(addr + off)
		pageOff := (addr + off) & (PageSize - 1)
		chunk := PageSize - pageOff
		remaining := n - off
		if chunk > remaining {
			chunk = remaining
		}
		page := r.getOrCreatePage(pageIdx)
		copy(page[pageOff:pageOff+chunk], src[off:off+chunk])
		off += chunk
	}
}

// InitPage allocates every page covering [addr, addr+length) (creating
// zero-filled backing storage on demand) and sets their access to accessType.
// A zero-length range is a no-op.
func (r *RAM) InitPage(addr, length uint32, accessType AccessType) {
	if length == 0 {
		return
	}
	first, last := pagesSpanning(addr, length)
	for p := first; p <= last; p++ {
		r.getOrCreatePage(p)
		r.access[p] = accessType
	}
}

// SetPageAccessRights updates access rights over [addr, addr+length) without
// touching page contents.
func (r *RAM) SetPageAccessRights(addr, length uint32, accessType AccessType) {
	if length == 0 {
		return
	}
	first, last := pagesSpanning(addr, length)
	for p := first; p <= last; p++ {
		r.access[p] = accessType
	}
}

// AllocatePages grows the heap by count pages starting at startPage, granting
// WRITE access and advancing the heap-pointer cursor. Used by SBRK-style
// handlers.
func (r *RAM) AllocatePages(startPage uint32, count uint32) {
	addr := startPage * PageSize
	length := count * PageSize
	r.InitPage(addr, length, AccessWrite)
	newTop := addr + length
	if newTop > r.currentHeapPointer {
		r.currentHeapPointer = newTop
	}
}

// HeapPointer returns the current heap cursor maintained by AllocatePages.
func (r *RAM) HeapPointer() uint32 {
	return r.currentHeapPointer
}

// SetHeapPointer forcibly repositions the heap cursor. Used by the loader when
// installing the initial heap region.
func (r *RAM) SetHeapPointer(addr uint32) {
	r.currentHeapPointer = addr
}

// WriteOctetsDuringInitialization is identical to Write but bypasses access
// checks; only the program loader may call it.
func (r *RAM) WriteOctetsDuringInitialization(addr uint32, data []byte) {
	r.copyIn(addr, data)
}

// GetPageDump returns a 4096-byte copy of the given page, zeros if absent.
func (r *RAM) GetPageDump(pageIndex uint32) [PageSize]byte {
	var out [PageSize]byte
	if p, ok := r.pages[pageIndex]; ok {
		out = *p
	}
	return out
}

// SetPageDump restores a previously dumped page's raw contents and marks it
// WRITE-accessible, used by ResetGenericWithMemory's memory-restore path.
func (r *RAM) SetPageDump(pageIndex uint32, data [PageSize]byte) {
	p := r.getOrCreatePage(pageIndex)
	*p = data
	r.access[pageIndex] = AccessWrite
}
