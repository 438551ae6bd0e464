package sfnt

import (
	"runtime"
	"sync"
)

// Table checksums, as defined by the sfnt container format: the unsigned
// 32-bit sum of the table's bytes interpreted as big-endian 32-bit words,
// with the table conceptually zero-padded to a 4-byte boundary.
//
// The 'head' table is special: its checkSumAdjustment field (bytes 8..12) is
// treated as zero while summing, both for the table's own checksum and for
// the whole-file checksum. The file-level invariant is
//
//	head.checkSumAdjustment == 0xB1B0AFBA - checksum(entire file)
//
// Validation failures are reported as ChecksumMismatch warnings attached to
// the Font; callers opt into strict mode (StrictChecksums) to make any
// mismatch a hard error at parse time.

// checksumMagic is the constant the whole-file checksum is adjusted against.
const checksumMagic = 0xB1B0AFBA

// headAdjustmentOffset locates the checkSumAdjustment field within 'head'.
const headAdjustmentOffset = 8

// Checksum computes the sfnt checksum of a byte segment. A trailing partial
// word is padded with zero bytes. The computation is a pure function of the
// input bytes: recomputing on the same segment always yields the same value.
func Checksum(b []byte) uint32 {
	var sum uint32
	n := len(b) &^ 3
	for i := 0; i < n; i += 4 {
		sum += u32(b[i:])
	}
	if rest := len(b) - n; rest > 0 {
		var word [4]byte
		copy(word[:], b[n:])
		sum += u32(word[:])
	}
	return sum
}

// checksumZeroed computes the sfnt checksum of b with bytes [from,to)
// treated as zero. Used for the head table's adjustment field.
func checksumZeroed(b []byte, from, to int) uint32 {
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		var word [4]byte
		for j := 0; j < 4; j++ {
			idx := i + j
			if idx >= len(b) || (idx >= from && idx < to) {
				continue
			}
			word[j] = b[idx]
		}
		sum += u32(word[:])
	}
	return sum
}

// tableChecksum recomputes the checksum of one table's data, applying the
// head special case.
func tableChecksum(rec TableRecord, data []byte) uint32 {
	if rec.Tag == T("head") {
		return checksumZeroed(data, headAdjustmentOffset, headAdjustmentOffset+4)
	}
	return Checksum(data)
}

// validateChecksums recomputes every table's checksum against the directory
// record and verifies the whole-file adjustment stored in 'head'. All table
// extents have been bounds-checked by the directory parse before this runs.
func (otf *Font) validateChecksums() []ChecksumMismatch {
	mismatches := otf.validateTableChecksums()
	if m, ok := otf.validateFileChecksum(); ok {
		mismatches = append(mismatches, m)
	}
	return mismatches
}

func (otf *Font) validateTableChecksums() []ChecksumMismatch {
	if otf.cfg.parallel && len(otf.tags) > 1 {
		return otf.validateTableChecksumsParallel()
	}
	var mismatches []ChecksumMismatch
	for _, tag := range otf.tags {
		rec := otf.dir[tag]
		if m, ok := checkTable(rec, otf.data); ok {
			mismatches = append(mismatches, m)
		}
	}
	return mismatches
}

// validateTableChecksumsParallel fans the per-table sums out over worker
// goroutines. Workers only read disjoint slices of the shared buffer, so the
// only synchronization needed is the result channel.
func (otf *Font) validateTableChecksumsParallel() []ChecksumMismatch {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(otf.tags) {
		workers = len(otf.tags)
	}
	jobs := make(chan TableRecord, len(otf.tags))
	results := make(chan ChecksumMismatch, len(otf.tags))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				if m, ok := checkTable(rec, otf.data); ok {
					results <- m
				}
			}
		}()
	}
	for _, tag := range otf.tags {
		jobs <- otf.dir[tag]
	}
	close(jobs)
	wg.Wait()
	close(results)
	var mismatches []ChecksumMismatch
	for m := range results {
		mismatches = append(mismatches, m)
	}
	// Channel draining order is nondeterministic; restore directory order
	// so repeated validation reports identically.
	sortMismatches(mismatches, otf.tags)
	return mismatches
}

func checkTable(rec TableRecord, data binarySegm) (ChecksumMismatch, bool) {
	table := data[rec.Offset : rec.Offset+rec.Length]
	computed := tableChecksum(rec, table)
	if computed == rec.Checksum {
		return ChecksumMismatch{}, false
	}
	return ChecksumMismatch{
		Table:    rec.Tag,
		Offset:   rec.Offset,
		Declared: rec.Checksum,
		Computed: computed,
	}, true
}

// validateFileChecksum verifies head.checkSumAdjustment against the checksum
// of the entire file. Fonts without a head table carry no adjustment and are
// skipped.
func (otf *Font) validateFileChecksum() (ChecksumMismatch, bool) {
	rec, ok := otf.dir[T("head")]
	if !ok || rec.Length < headAdjustmentOffset+4 {
		return ChecksumMismatch{}, false
	}
	declared := u32(otf.data[rec.Offset+headAdjustmentOffset:])
	from := int(rec.Offset) + headAdjustmentOffset
	fileSum := checksumZeroed(otf.data, from, from+4)
	expected := checksumMagic - fileSum
	if declared == expected {
		return ChecksumMismatch{}, false
	}
	return ChecksumMismatch{
		Table:    0, // zero tag marks the file-level adjustment
		Offset:   rec.Offset + headAdjustmentOffset,
		Declared: declared,
		Computed: expected,
	}, true
}

func sortMismatches(mismatches []ChecksumMismatch, order []Tag) {
	rank := make(map[Tag]int, len(order))
	for i, tag := range order {
		rank[tag] = i
	}
	for i := 1; i < len(mismatches); i++ {
		for j := i; j > 0 && rank[mismatches[j].Table] < rank[mismatches[j-1].Table]; j-- {
			mismatches[j], mismatches[j-1] = mismatches[j-1], mismatches[j]
		}
	}
}
