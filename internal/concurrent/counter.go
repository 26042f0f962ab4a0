package concurrent

import "sync/atomic"

// Adder is a high-throughput accumulating counter. Semantically it is an
// atomic integer with fetch_add writes and a load read, but writes land on
// per-writer slots and the read folds all slots, so concurrent writers never
// touch the same cache line.
//
// The original trick of a plain aligned-word store is replaced with
// single-writer atomic load/store pairs: the handle's goroutine is the only
// mutator, the atomics exist solely so enumerating readers see torn-free
// values.
type Adder struct {
	storage shards[atomic.Int64]
}

// AdderHandle is one writer's binding to an Adder slot. A handle must only
// ever be used from a single goroutine.
type AdderHandle struct {
	owner *Adder
	slot  *shardSlot[atomic.Int64]
}

// Handle binds the calling writer to a slot.
func (a *Adder) Handle() *AdderHandle {
	return &AdderHandle{owner: a, slot: a.storage.acquire()}
}

// Add accumulates value into the writer's slot.
func (h *AdderHandle) Add(value int64) {
	// Single mutator per slot: a load/store pair is enough, no RMW needed.
	h.slot.value.Store(h.slot.value.Load() + value)
}

// Release returns the slot for reuse by a future writer. The slot's
// accumulated value remains visible to Value.
func (h *AdderHandle) Release() {
	h.owner.storage.release(h.slot)
	h.slot = nil
}

// Value folds every slot and returns the total.
func (a *Adder) Value() int64 {
	var total int64
	for _, slot := range a.storage.snapshot() {
		total += slot.value.Load()
	}
	return total
}

// Reset clears every slot. Writes racing the reset may be attributed to
// either epoch.
func (a *Adder) Reset() {
	for _, slot := range a.storage.snapshot() {
		slot.value.Store(0)
	}
}

// maxerSlot pairs a sample with the epoch it was recorded in.
type maxerSlot struct {
	version atomic.Uint64
	value   atomic.Int64
}

// Maxer is a high-throughput running-maximum counter with epoch semantics:
// Value reports the maximum sample since the last Reset.
//
// Reset is a plain version bump rather than a slot walk. A sample recorded in
// the narrow window around a bump may be attributed to the closed epoch and
// dropped from the next one. For the statistics this counter backs that loss
// is acceptable; callers that need strict epochs should gate slot writes on a
// CAS of the version instead and pay the barrier on every write.
type Maxer struct {
	storage shards[maxerSlot]
	version atomic.Uint64
}

// MaxerHandle is one writer's binding to a Maxer slot. Single goroutine only.
type MaxerHandle struct {
	owner *Maxer
	slot  *shardSlot[maxerSlot]
}

// Handle binds the calling writer to a slot.
func (m *Maxer) Handle() *MaxerHandle {
	return &MaxerHandle{owner: m, slot: m.storage.acquire()}
}

// Record folds value into the writer's slot for the current epoch.
func (h *MaxerHandle) Record(value int64) {
	version := h.owner.version.Load() + 1
	slot := &h.slot.value
	if slot.version.Load() != version {
		// First sample of this epoch: publish the value before the version
		// so a matching version always pairs with an epoch-local value.
		slot.value.Store(value)
		slot.version.Store(version)
		return
	}
	if value > slot.value.Load() {
		slot.value.Store(value)
	}
}

// Release returns the slot for reuse by a future writer.
func (h *MaxerHandle) Release() {
	h.owner.storage.release(h.slot)
	h.slot = nil
}

// Value reports whether any sample was recorded in the current epoch, and if
// so the maximum one.
func (m *Maxer) Value() (int64, bool) {
	version := m.version.Load() + 1
	var max int64
	seen := false
	for _, slot := range m.storage.snapshot() {
		if slot.value.version.Load() != version {
			continue
		}
		v := slot.value.value.Load()
		if !seen || v > max {
			max = v
			seen = true
		}
	}
	return max, seen
}

// MaxOrZero returns the epoch maximum, or 0 when the epoch has no samples.
func (m *Maxer) MaxOrZero() int64 {
	v, _ := m.Value()
	return v
}

// Reset opens a new epoch. Samples from before the bump stop matching and
// fall out of enumeration.
func (m *Maxer) Reset() {
	m.version.Add(1)
}

// Summary is the aggregate of a Summer: total of all samples and how many
// there were.
type Summary struct {
	Sum int64
	Num int64
}

// summerSlot holds a {sum, num} pair guarded by a per-slot sequence lock.
//
// The original relies on aligned 16-byte stores being observably atomic on
// contemporary x86-64 and ARMv8.4+ parts. Go exposes no 128-bit atomic, so
// the slot carries a seqlock instead: the writer makes the sequence odd,
// updates both halves, and makes it even again; a reader retries until it
// brackets a stable even sequence.
type summerSlot struct {
	seq atomic.Uint64
	sum atomic.Int64
	num atomic.Int64
}

// Summer is a high-throughput sample accumulator tracking both the running
// sum and the sample count.
type Summer struct {
	storage shards[summerSlot]
}

// SummerHandle is one writer's binding to a Summer slot. Single goroutine
// only.
type SummerHandle struct {
	owner *Summer
	slot  *shardSlot[summerSlot]
}

// Handle binds the calling writer to a slot.
func (s *Summer) Handle() *SummerHandle {
	return &SummerHandle{owner: s, slot: s.storage.acquire()}
}

// Add records a single sample: sum += value, num += 1.
func (h *SummerHandle) Add(value int64) {
	h.AddSummary(Summary{Sum: value, Num: 1})
}

// AddSummary folds a pre-aggregated batch into the writer's slot.
func (h *SummerHandle) AddSummary(summary Summary) {
	slot := &h.slot.value
	seq := slot.seq.Load()
	slot.seq.Store(seq + 1)
	slot.sum.Store(slot.sum.Load() + summary.Sum)
	slot.num.Store(slot.num.Load() + summary.Num)
	slot.seq.Store(seq + 2)
}

// Release returns the slot for reuse by a future writer. Accumulated samples
// stay visible to Value.
func (h *SummerHandle) Release() {
	h.owner.storage.release(h.slot)
	h.slot = nil
}

// Value folds every slot into one Summary.
func (s *Summer) Value() Summary {
	var total Summary
	for _, slot := range s.storage.snapshot() {
		cell := &slot.value
		for {
			before := cell.seq.Load()
			if before&1 != 0 {
				continue
			}
			sum := cell.sum.Load()
			num := cell.num.Load()
			if cell.seq.Load() == before {
				total.Sum += sum
				total.Num += num
				break
			}
		}
	}
	return total
}
