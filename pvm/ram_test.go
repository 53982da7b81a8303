package pvm

import "testing"

func TestRAMReadWriteRoundTrip(t *testing.T) {
	r := NewRAM()
	r.InitPage(0, PageSize, AccessWrite)
	data := []byte{1, 2, 3, 4}
	assert(t, r.Write(0x10, data) == nil, "write to WRITE page should succeed")
	got, err := r.Read(0x10, 4)
	assert(t, err == nil, "read after write should succeed: %v", err)
	assert(t, string(got) == string(data), "read-after-write mismatch")
}

// TestPageFaultSemantics covers a store to the unmapped page just past a
// READ-only page [0, 0x1000): the fault address is that page's start, and the
// READ-only page's memory is left unchanged.
func TestPageFaultSemantics(t *testing.T) {
	r := NewRAM()
	r.InitPage(0, PageSize, AccessRead)

	before, _ := r.Read(0, PageSize)

	err := r.Write(0x1000, []byte{0xAB})
	assert(t, err != nil, "write to unmapped page 0x1000 should fault")
	fault, ok := err.(*Fault)
	assert(t, ok, "expected *Fault, got %T", err)
	assert(t, fault.Addr == 0x1000, "expected fault at page start 0x1000, got 0x%08x", fault.Addr)

	after, _ := r.Read(0, PageSize)
	assert(t, string(before) == string(after), "page contents must be unchanged after a faulted write")
}

func TestReadFaultsOnUnmappedPage(t *testing.T) {
	r := NewRAM()
	_, err := r.Read(0, 1)
	assert(t, err != nil, "read of unmapped page should fault")
}

func TestReadWriteSpanningAddressOverflowFaultsAtAddr(t *testing.T) {
	r := NewRAM()
	r.InitPage(0xFFFFF000, PageSize, AccessWrite)
	err := r.Write(0xFFFFFFFE, []byte{1, 2, 3, 4})
	assert(t, err != nil, "write overflowing 2^32 should fault")
	fault := err.(*Fault)
	assert(t, fault.Addr == 0xFFFFFFFE, "overflow fault address should be addr itself, got 0x%08x", fault.Addr)
}

// TestSBRKAllocAtPageBoundary covers heap growth landing exactly on a page
// boundary.
func TestSBRKAllocAtPageBoundary(t *testing.T) {
	r := NewRAM()
	r.AllocatePages(0, 16) // establish an initial heap pointer at 16*4096
	assert(t, r.HeapPointer() == 16*PageSize, "unexpected initial heap pointer %d", r.HeapPointer())

	startPage := r.HeapPointer() / PageSize
	r.AllocatePages(startPage, 2) // 8192 bytes == 2 pages

	assert(t, startPage == 16, "expected alloc to start at page 16, got %d", startPage)
	assert(t, r.HeapPointer() == 18*PageSize, "expected new heap pointer 18*4096, got %d", r.HeapPointer())
	assert(t, r.accessOf(16) == AccessWrite, "page 16 should be WRITE")
	assert(t, r.accessOf(17) == AccessWrite, "page 17 should be WRITE")
}

func TestPageDumpRoundTrip(t *testing.T) {
	r := NewRAM()
	r.InitPage(0, PageSize, AccessWrite)
	r.WriteOctetsDuringInitialization(0, []byte{9, 9, 9})

	dump := r.GetPageDump(0)
	assert(t, dump[0] == 9 && dump[1] == 9 && dump[2] == 9, "page dump should reflect written bytes")

	r2 := NewRAM()
	r2.SetPageDump(0, dump)
	got, err := r2.Read(0, 3)
	assert(t, err == nil, "read after SetPageDump should succeed: %v", err)
	assert(t, got[0] == 9, "restored page should carry dumped contents")
}
