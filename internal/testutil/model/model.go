// Package model provides deliberately simple, in-memory reference models of
// the observable behavior of this module's four components.
//
// These are NOT reference implementations of the wire formats: they do not
// know about cache lines, atomics, or byte layout. Instead each model tracks
// just enough history to predict what a correct implementation must report,
// using naive data structures (slices, maps) that are obviously correct. The
// real components are compared against these models to detect discrepancies.
package model

// BroadcastMessage is one message as observed by a broadcast receiver.
type BroadcastMessage struct {
	TypeID  int32
	Payload []byte
}

// BroadcastModel mirrors a broadcast buffer's transmit history closely
// enough to predict what a receiver that drains it once, at the end, must
// observe: the still-reachable messages, and whether reaching them required
// skipping at least one message the writer had already overwritten.
//
// This does not model a receiver polling concurrently with the writer; it
// only models the end state, which is what the capacity-bound overwrite
// tests in this module need.
type BroadcastModel struct {
	capacity int
	records  []broadcastRecord
}

type broadcastRecord struct {
	message    BroadcastMessage
	cumulative int64 // bytes written up to and including this record, alignedRecordLength summed
}

// NewBroadcastModel returns a model for a broadcast buffer of the given body
// capacity in bytes.
func NewBroadcastModel(capacity int) *BroadcastModel {
	return &BroadcastModel{capacity: capacity}
}

// Transmit records that a message of alignedRecordLength bytes (header +
// payload, rounded up to the buffer's alignment) was written.
func (m *BroadcastModel) Transmit(typeID int32, payload []byte, alignedRecordLength int) {
	var prevCumulative int64
	if n := len(m.records); n > 0 {
		prevCumulative = m.records[n-1].cumulative
	}

	m.records = append(m.records, broadcastRecord{
		message:    BroadcastMessage{TypeID: typeID, Payload: append([]byte(nil), payload...)},
		cumulative: prevCumulative + int64(alignedRecordLength),
	})
}

// Observe returns every message still reachable from the end of the
// transmit history, oldest first, and whether at least one earlier message
// had already been overwritten by the time of observation.
func (m *BroadcastModel) Observe() (messages []BroadcastMessage, lapped bool) {
	if len(m.records) == 0 {
		return nil, false
	}

	cutoff := m.records[len(m.records)-1].cumulative - int64(m.capacity)

	for _, record := range m.records {
		if record.cumulative <= cutoff {
			lapped = true

			continue
		}

		messages = append(messages, record.message)
	}

	return messages, lapped
}

// RingMessage is one message as observed by a ring buffer's consumer.
type RingMessage struct {
	TypeID  int32
	Payload []byte
}

// RingBufferModel is a naive FIFO queue mirroring what a many-to-one ring
// buffer's single consumer must observe: messages in the order their
// producers committed them, with no message reordered, dropped, or
// duplicated.
type RingBufferModel struct {
	queue []RingMessage
}

// Commit records a message as having been committed by some producer. The
// caller is responsible for invoking Commit in actual commit order (i.e.
// the order the real buffer's Consumer will observe them), not necessarily
// the order TryClaim was called in.
func (m *RingBufferModel) Commit(typeID int32, payload []byte) {
	m.queue = append(m.queue, RingMessage{TypeID: typeID, Payload: append([]byte(nil), payload...)})
}

// Drain removes and returns up to limit messages from the front of the
// queue, oldest first. limit <= 0 drains everything currently queued.
func (m *RingBufferModel) Drain(limit int) []RingMessage {
	if limit <= 0 || limit > len(m.queue) {
		limit = len(m.queue)
	}

	drained := m.queue[:limit]
	m.queue = m.queue[limit:]

	return drained
}

// Len reports how many messages are currently queued.
func (m *RingBufferModel) Len() int {
	return len(m.queue)
}

// ErrorObservation is one distinct error identity's aggregated history.
type ErrorObservation struct {
	Encoded          string
	ObservationCount int32
	FirstTimestamp   int64
	LastTimestamp    int64
}

// ErrorLogModel mirrors distinct error log coalescing: one aggregated
// observation per distinct encoded identity, in first-seen order.
type ErrorLogModel struct {
	order   []string
	records map[string]*ErrorObservation
}

// NewErrorLogModel returns an empty error log model.
func NewErrorLogModel() *ErrorLogModel {
	return &ErrorLogModel{records: make(map[string]*ErrorObservation)}
}

// Record coalesces an observation of the error identified by encoded at
// timestamp now into its aggregated entry, creating one if this is the
// first time encoded has been seen.
func (m *ErrorLogModel) Record(encoded string, now int64) {
	record, ok := m.records[encoded]
	if !ok {
		record = &ErrorObservation{Encoded: encoded, FirstTimestamp: now}
		m.records[encoded] = record
		m.order = append(m.order, encoded)
	}

	record.ObservationCount++
	record.LastTimestamp = now
}

// Since returns every observation whose LastTimestamp is at or after
// sinceTimestamp, in first-seen order.
func (m *ErrorLogModel) Since(sinceTimestamp int64) []ErrorObservation {
	var out []ErrorObservation

	for _, encoded := range m.order {
		record := m.records[encoded]
		if record.LastTimestamp >= sinceTimestamp {
			out = append(out, *record)
		}
	}

	return out
}

// CounterInfo describes one allocated counter slot.
type CounterInfo struct {
	ID     int32
	TypeID int32
	Label  string
}

// CountersModel mirrors a counters store's allocation table and values,
// independent of the real implementation's cache-line byte layout.
type CountersModel struct {
	slots    []counterSlot
	freeList []int32
}

type counterSlot struct {
	allocated bool
	typeID    int32
	label     string
	value     int64
}

// Allocate reserves the next free id (reusing the oldest freed id first, to
// match the real Store's FIFO free list) and returns it.
func (m *CountersModel) Allocate(label string, typeID int32) int32 {
	if n := len(m.freeList); n > 0 {
		id := m.freeList[0]
		m.freeList = m.freeList[1:]
		m.slots[id] = counterSlot{allocated: true, typeID: typeID, label: label, value: 0}

		return id
	}

	id := int32(len(m.slots))
	m.slots = append(m.slots, counterSlot{allocated: true, typeID: typeID, label: label, value: 0})

	return id
}

// Free reclaims id, returning it to the free list. The value is zeroed only
// once id is reused by a later Allocate, matching the real Store.
func (m *CountersModel) Free(id int32) {
	m.slots[id].allocated = false
	m.freeList = append(m.freeList, id)
}

// Value returns the current value of counter id.
func (m *CountersModel) Value(id int32) int64 {
	return m.slots[id].value
}

// SetValue overwrites the value of counter id.
func (m *CountersModel) SetValue(id int32, value int64) {
	m.slots[id].value = value
}

// AddValue adds delta to the value of counter id and returns the new value.
func (m *CountersModel) AddValue(id int32, delta int64) int64 {
	m.slots[id].value += delta

	return m.slots[id].value
}

// Iterate invokes fn once per currently allocated counter, in id order,
// stopping early if fn returns false.
func (m *CountersModel) Iterate(fn func(CounterInfo) bool) {
	for id, slot := range m.slots {
		if !slot.allocated {
			continue
		}

		if !fn(CounterInfo{ID: int32(id), TypeID: slot.typeID, Label: slot.label}) {
			return
		}
	}
}
