package autodiff

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"weak"

	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"
)

// Tracker is a weak registry of the recorded tensors of a Context. It never
// keeps a tensor alive: entries are weak pointers, forgotten by a runtime
// cleanup once their tensor is collected, and skipped if found stale first.
// Backward never consults it; reachability comes from the records alone.
//
// The lock only guards against the runtime's cleanup goroutine; tensors
// themselves stay confined to one goroutine.
type Tracker struct {
	mu      sync.Mutex
	nextSeq uint64
	entries map[uint64]weak.Pointer[Tensor]
}

func newTracker() *Tracker {
	return &Tracker{entries: make(map[uint64]weak.Pointer[Tensor])}
}

// register adds t and returns its key.
func (tr *Tracker) register(t *Tensor) uint64 {
	tr.mu.Lock()
	tr.nextSeq++
	seq := tr.nextSeq
	tr.entries[seq] = weak.Make(t)
	tr.mu.Unlock()

	runtime.AddCleanup(t, tr.forget, seq)
	return seq
}

// forget drops the entry for seq, if any.
func (tr *Tracker) forget(seq uint64) {
	tr.mu.Lock()
	delete(tr.entries, seq)
	tr.mu.Unlock()
}

// Live returns the recorded tensors still alive, in creation order. Stale
// entries met on the way are pruned.
func (tr *Tracker) Live() []*Tensor {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	seqs := make([]uint64, 0, len(tr.entries))
	for seq := range tr.entries {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	live := make([]*Tensor, 0, len(seqs))
	for _, seq := range seqs {
		t := tr.entries[seq].Value()
		if t == nil || t.record == nil {
			delete(tr.entries, seq)
			continue
		}
		live = append(live, t)
	}
	return live
}

// Len returns the number of live recorded tensors.
func (tr *Tracker) Len() int {
	return len(tr.Live())
}

// DetachAll detaches every live recorded tensor and returns how many there
// were. Tensors the caller still holds keep their values as leaves.
func (tr *Tracker) DetachAll() int {
	live := tr.Live()
	for _, t := range live {
		t.Detach()
	}
	klog.V(1).Infof("pruned %d recorded tensors", len(live))
	return len(live)
}

// Stats is a snapshot of the live recorded tensors.
type Stats struct {
	Nodes     int
	DataBytes uint64
	GradBytes uint64
}

// Stats returns a snapshot of the live recorded tensors. Bytes are counted
// per tensor, so aliases sharing a buffer are counted once each.
func (tr *Tracker) Stats() Stats {
	var s Stats
	for _, t := range tr.Live() {
		s.Nodes++
		s.DataBytes += uint64(t.data.ByteSize())
		if t.grad != nil {
			s.GradBytes += uint64(t.grad.ByteSize())
		}
	}
	return s
}

// String renders the snapshot, e.g. "12 nodes, 4.1 kB data, 0 B grad".
func (s Stats) String() string {
	return fmt.Sprintf("%s nodes, %s data, %s grad",
		humanize.Comma(int64(s.Nodes)), humanize.Bytes(s.DataBytes), humanize.Bytes(s.GradBytes))
}
