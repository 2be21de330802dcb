package laik

import (
	"context"
	"fmt"
	"sort"
)

// LocalCopyOp moves data this worker already owns from the old layout
// into the new one without touching the backend.
type LocalCopyOp struct {
	Range Range
}

// SendOp transmits this worker's old-layout data for Range to worker
// To, which owns it under the new partitioning.
type SendOp struct {
	To    int
	Range Range
}

// RecvOp receives Range's data from worker From, which owned it under
// the old partitioning, into this worker's new layout.
type RecvOp struct {
	From  int
	Range Range
}

// TransferPlan is the diff of two border arrays reduced to the three
// kinds of data movement a switch_to transition can require (spec
// §4.H): entries this worker already holds and keeps (Local), entries
// it must ship to a new owner (Sends), and entries a new owner must
// ship to it (Recvs). Execution order is fixed: local copies happen
// first, then sends, then receives (interleaved with their unpack),
// then the closing barrier (spec §4.H.4).
type TransferPlan struct {
	Local []LocalCopyOp
	Sends []SendOp
	Recvs []RecvOp
}

type interval struct{ from, to int }

// planTransfer diffs oldBA (the container's current border array)
// against newBA (the target) from myID's point of view, producing the
// set of local copies, sends, and receives myID must perform.
//
// Overlapping writers — more than one old slice covering the same
// destination sub-range, which a pathological or hand-built
// Partitioner can produce — are resolved by giving the lowest task id
// ownership of the overlap, per spec §4.H's tie-break rule.
func planTransfer(oldBA, newBA *BorderArray, myID int) (TransferPlan, error) {
	var plan TransferPlan

	for i := 0; i < newBA.Count(); i++ {
		dst := newBA.Get(i)
		if dst.Range.Space.Dims() != 1 {
			return TransferPlan{}, &PreconditionFailedError{Op: "plan_transfer", Reason: "transfer planning only supports 1-D ranges"}
		}

		candidates := overlappingSlices(oldBA, dst.Range)
		winners := resolveWinners(dst.Range, candidates)

		for _, w := range winners {
			seg := Range{Space: dst.Range.Space, From: Index{I0: w.from}, To: Index{I0: w.to}}
			switch {
			case w.task == myID && dst.Task == myID:
				plan.Local = append(plan.Local, LocalCopyOp{Range: seg})
			case w.task == myID && dst.Task != myID:
				plan.Sends = append(plan.Sends, SendOp{To: dst.Task, Range: seg})
			case w.task != myID && dst.Task == myID:
				plan.Recvs = append(plan.Recvs, RecvOp{From: w.task, Range: seg})
			}
		}
	}

	sort.Slice(plan.Sends, func(i, j int) bool {
		if plan.Sends[i].To != plan.Sends[j].To {
			return plan.Sends[i].To < plan.Sends[j].To
		}
		return plan.Sends[i].Range.From.I0 < plan.Sends[j].Range.From.I0
	})
	sort.Slice(plan.Recvs, func(i, j int) bool {
		if plan.Recvs[i].From != plan.Recvs[j].From {
			return plan.Recvs[i].From < plan.Recvs[j].From
		}
		return plan.Recvs[i].Range.From.I0 < plan.Recvs[j].Range.From.I0
	})
	sort.Slice(plan.Local, func(i, j int) bool {
		return plan.Local[i].Range.From.I0 < plan.Local[j].Range.From.I0
	})

	return plan, nil
}

func overlappingSlices(ba *BorderArray, r Range) []TaskSlice {
	var out []TaskSlice
	for i := 0; i < ba.Count(); i++ {
		s := ba.Get(i)
		if s.Range.From.I0 < r.To.I0 && r.From.I0 < s.Range.To.I0 {
			out = append(out, s)
		}
	}
	return out
}

type winner struct {
	from, to int
	task     int
}

// resolveWinners assigns each point in [target.From.I0, target.To.I0)
// to the lowest-task-id candidate slice covering it.
func resolveWinners(target Range, candidates []TaskSlice) []winner {
	sorted := make([]TaskSlice, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Task < sorted[j].Task })

	var covered []interval
	var out []winner

	for _, c := range sorted {
		from := maxInt(target.From.I0, c.Range.From.I0)
		to := minInt(target.To.I0, c.Range.To.I0)
		if to <= from {
			continue
		}
		for _, seg := range subtract(from, to, covered) {
			out = append(out, winner{from: seg.from, to: seg.to, task: c.Task})
			covered = append(covered, seg)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].from < out[j].from })
	return out
}

// subtract removes every interval in covered from [from, to), returning
// the surviving pieces in ascending order.
func subtract(from, to int, covered []interval) []interval {
	segs := []interval{{from, to}}
	for _, c := range covered {
		var next []interval
		for _, s := range segs {
			if c.to <= s.from || s.to <= c.from {
				next = append(next, s)
				continue
			}
			if c.from > s.from {
				next = append(next, interval{s.from, c.from})
			}
			if c.to < s.to {
				next = append(next, interval{c.to, s.to})
			}
		}
		segs = next
	}
	return segs
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// executePlan runs a TransferPlan's operations in the fixed order the
// spec requires: local copies, then sends, then receives (each
// unpacked as it arrives), then a closing barrier so every worker
// knows the transition completed before either side proceeds.
func (d *Data) executePlan(ctx context.Context, plan TransferPlan, oldLayout Layout, oldBuf []byte, newLayout Layout, newBuf []byte) error {
	elemSize := d.elemSize()

	for _, op := range plan.Local {
		if err := oldLayout.Copy(oldBuf, newLayout, newBuf, elemSize, op.Range); err != nil {
			return err
		}
	}

	pool := d.inst.bufPool()
	group := d.group

	for _, op := range plan.Sends {
		raw := pool.get()
		raw = ensureCap(raw, op.Range.Size()*elemSize)
		cursor := op.Range.From
		for {
			n, next, done := oldLayout.Pack(oldBuf, elemSize, op.Range, cursor, raw)
			_ = n
			if done {
				break
			}
			cursor = next
		}
		payload := d.encode(raw)
		if err := group.Send(ctx, op.To, payload); err != nil {
			d.inst.cfg.hooks.each(func(h Hook) {
				if sh, ok := h.(BackendSendHook); ok {
					sh.OnBackendSend(d.name, op.To, len(payload), 0, err)
				}
			})
			pool.put(raw)
			return fmt.Errorf("laik: send to %d: %w", op.To, err)
		}
		d.inst.cfg.hooks.each(func(h Hook) {
			if sh, ok := h.(BackendSendHook); ok {
				sh.OnBackendSend(d.name, op.To, len(payload), 0, nil)
			}
		})
		pool.put(raw)
	}

	for _, op := range plan.Recvs {
		payload, err := group.Recv(ctx, op.From)
		if err != nil {
			return fmt.Errorf("laik: recv from %d: %w", op.From, err)
		}
		raw, err := d.decode(payload)
		if err != nil {
			return fmt.Errorf("laik: decode payload from %d: %w", op.From, err)
		}
		cursor := op.Range.From
		for {
			_, next, done := newLayout.Unpack(newBuf, elemSize, op.Range, cursor, raw)
			if done {
				break
			}
			cursor = next
		}
	}

	return group.Barrier(ctx)
}

func ensureCap(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}

// encode prefixes the packed payload with a one-byte flag marking
// whether the body is compressed, so decode never has to guess from
// length alone whether the sender engaged the codec.
func (d *Data) encode(raw []byte) []byte {
	c := d.inst.cfg.compressor
	if c == nil || len(raw) < d.inst.cfg.compressMin {
		out := make([]byte, 1+len(raw))
		copy(out[1:], raw)
		return out
	}
	body := c.Compress(nil, raw)
	out := make([]byte, 1+len(body))
	out[0] = 1
	copy(out[1:], body)
	return out
}

func (d *Data) decode(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return payload, nil
	}
	flag, body := payload[0], payload[1:]
	if flag == 0 {
		return body, nil
	}
	c := d.inst.cfg.compressor
	if c == nil {
		return nil, fmt.Errorf("laik: received compressed payload but no compressor is configured")
	}
	return c.Decompress(nil, body)
}
