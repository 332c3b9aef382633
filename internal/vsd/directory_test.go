package vsd

import (
	"testing"
)

func entriesOf(types ...ChunkType) []dirEntry {
	var out []dirEntry
	for i, typ := range types {
		out = append(out, dirEntry{index: uint32(i), ptr: Pointer{Tag: uint32(typ), Offset: uint32(0x1000 + i)}})
	}
	return out
}

func indexes(entries []dirEntry) []uint32 {
	out := make([]uint32, len(entries))
	for i, e := range entries {
		out[i] = e.index
	}
	return out
}

func equalIndexes(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDispatchOrder_BucketsThenExplicitOrder(t *testing.T) {
	// 0-2 generic, 3 and 5 name lists, 4 font faces.
	entries := entriesOf(TypeShapeShape, TypePage, TypeStyles, TypeNameList2, TypeFontFaces, TypeNameList)
	got := indexes(dispatchOrder(entries, []uint32{2, 0, 1}))
	want := []uint32{3, 5, 4, 2, 0, 1}
	if !equalIndexes(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDispatchOrder_NameIndexBeforeFonts(t *testing.T) {
	entries := entriesOf(TypeFontFaces, TypeNameIdx, TypePage, TypeNameIdx123, TypeNameList2)
	got := indexes(dispatchOrder(entries, nil))
	want := []uint32{4, 1, 3, 0, 2}
	if !equalIndexes(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDispatchOrder_UnknownAndLeftoverEntries(t *testing.T) {
	entries := entriesOf(TypePage, TypePage, TypePage, TypePage)
	// 9 is not a generic index and the second 3 was already emitted.
	got := indexes(dispatchOrder(entries, []uint32{3, 9, 1, 3}))
	want := []uint32{3, 1, 0, 2}
	if !equalIndexes(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDispatchOrder_NameEntriesNotReorderedByList(t *testing.T) {
	entries := entriesOf(TypePage, TypeNameList2)
	got := indexes(dispatchOrder(entries, []uint32{1, 0}))
	want := []uint32{1, 0}
	if !equalIndexes(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestReadDirectory_SkipsEmptySlots(t *testing.T) {
	ptrs := []Pointer{
		{Tag: uint32(TypePage), Offset: 0x200, Length: 4},
		{},
		{Tag: uint32(TypeStyles), Offset: 0x300, Length: 4},
	}
	d, err := readDirectory(NewStreamBytes(dirBytes(0, ptrs, nil)), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := indexes(d.entries)
	if !equalIndexes(got, []uint32{0, 2}) {
		t.Errorf("expected entries [0 2], got %v", got)
	}
}

func TestReadDirectory_ListSizeOneIgnored(t *testing.T) {
	ptrs := []Pointer{{Tag: uint32(TypePage), Offset: 0x200, Length: 4}}
	d, err := readDirectory(NewStreamBytes(dirBytes(0, ptrs, []uint32{0})), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.order) != 0 {
		t.Errorf("expected list size 1 to be treated as no order, got %v", d.order)
	}
}

func TestReadDirectory_ShortOrderList(t *testing.T) {
	ptrs := []Pointer{{Tag: uint32(TypePage), Offset: 0x200, Length: 4}}
	data := dirBytes(0, ptrs, []uint32{0, 0, 0})
	// Drop the last order entry but keep the declared list size of 3.
	d, err := readDirectory(NewStreamBytes(data[:len(data)-4]), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.order) != 2 {
		t.Errorf("expected 2 order entries, got %d", len(d.order))
	}
}

func TestReadDirectory_Shifted(t *testing.T) {
	ptrs := []Pointer{{Tag: uint32(TypePage), Offset: 0x200, Length: 4}}
	d, err := readDirectory(NewStreamBytes(dirBytes(4, ptrs, nil)), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.entries) != 1 || d.entries[0].ptr.Offset != 0x200 {
		t.Errorf("expected one pointer to 0x200, got %+v", d.entries)
	}
}

func TestReadDirectory_TruncatedPointerArray(t *testing.T) {
	ptrs := []Pointer{
		{Tag: uint32(TypePage), Offset: 0x200, Length: 4},
		{Tag: uint32(TypePage), Offset: 0x300, Length: 4},
	}
	data := dirBytes(0, ptrs, nil)
	if _, err := readDirectory(NewStreamBytes(data[:len(data)-10]), 0); err == nil {
		t.Error("expected error for truncated pointer array")
	}
	if _, err := readDirectory(NewStreamBytes([]byte{1, 2}), 0); err == nil {
		t.Error("expected error for missing header")
	}
}
