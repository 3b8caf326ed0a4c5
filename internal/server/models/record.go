package models

import "github.com/google/uuid"

// Record is one element of a per-(host, tag) append-only stream. Idx is the
// client-assigned cursor within the stream; the server only enforces that
// (user, host, tag, idx) is unique so retries are idempotent. ID is assigned
// server-side at insert time (time-ordered UUID) and never used as a cursor.
//
// Idx and Timestamp are unsigned on the wire and stored as signed 64-bit
// columns; conversions must preserve the raw bit pattern in both directions.
type Record struct {
	ID                   uuid.UUID `json:"id"`
	ClientID             uuid.UUID `json:"client_id"`
	Host                 uuid.UUID `json:"host"`
	Idx                  uint64    `json:"idx"`
	Timestamp            uint64    `json:"timestamp"`
	Version              string    `json:"version"`
	Tag                  string    `json:"tag"`
	Data                 []byte    `json:"data"`
	ContentEncryptionKey []byte    `json:"cek"`
	UserID               int64     `json:"-"`
}

// RecordStatus maps (host, tag) to the highest idx the server has seen. It is
// derived by aggregation, never persisted, and is intentionally coarse: gap
// detection belongs to the client.
type RecordStatus struct {
	Hosts map[uuid.UUID]map[string]uint64 `json:"hosts"`
}

func NewRecordStatus() *RecordStatus {
	return &RecordStatus{Hosts: make(map[uuid.UUID]map[string]uint64)}
}

// Set records the max idx for one (host, tag) stream.
func (s *RecordStatus) Set(host uuid.UUID, tag string, idx uint64) {
	tags, ok := s.Hosts[host]
	if !ok {
		tags = make(map[string]uint64)
		s.Hosts[host] = tags
	}
	tags[tag] = idx
}

// Get returns the max idx for one (host, tag) stream, reporting whether the
// stream exists at all.
func (s *RecordStatus) Get(host uuid.UUID, tag string) (uint64, bool) {
	tags, ok := s.Hosts[host]
	if !ok {
		return 0, false
	}
	idx, ok := tags[tag]
	return idx, ok
}
