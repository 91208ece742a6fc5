package handlers

import (
	"testing"
	"time"
)

func TestScanDebouncerRejectsRepeatWithinWindow(t *testing.T) {
	d := newScanDebouncer(100 * time.Millisecond)

	if d.isDuplicate("sort-1", "P-1") {
		t.Fatal("first scan flagged as duplicate")
	}
	if !d.isDuplicate("sort-1", "P-1") {
		t.Error("immediate repeat not flagged")
	}
}

func TestScanDebouncerKeysOnStationAndBarcode(t *testing.T) {
	d := newScanDebouncer(time.Minute)
	d.isDuplicate("sort-1", "P-1")

	if d.isDuplicate("sort-2", "P-1") {
		t.Error("same barcode from another station flagged")
	}
	if d.isDuplicate("sort-1", "P-2") {
		t.Error("different barcode from same station flagged")
	}
}

func TestScanDebouncerExpires(t *testing.T) {
	d := newScanDebouncer(10 * time.Millisecond)
	d.isDuplicate("sort-1", "P-1")

	time.Sleep(20 * time.Millisecond)
	if d.isDuplicate("sort-1", "P-1") {
		t.Error("repeat after window still flagged")
	}
}

func TestScanDebouncerForget(t *testing.T) {
	d := newScanDebouncer(time.Minute)
	d.isDuplicate("sort-1", "P-1")
	d.forget("sort-1", "P-1")

	if d.isDuplicate("sort-1", "P-1") {
		t.Error("forgotten scan still flagged")
	}
}

func TestScanDebouncerDisabled(t *testing.T) {
	d := newScanDebouncer(0)
	if d.isDuplicate("sort-1", "P-1") || d.isDuplicate("sort-1", "P-1") {
		t.Error("zero window must never debounce")
	}
}
