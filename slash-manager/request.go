package slashmanager

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// SlashingRequestStatus is the state of a slashing request. Expired is not
// stored: a Requested or Locked request past its expiry is expired.
type SlashingRequestStatus uint8

const (
	Requested SlashingRequestStatus = iota
	Locked
	Finalized
	Cancelled
)

func (s SlashingRequestStatus) String() string {
	switch s {
	case Requested:
		return "requested"
	case Locked:
		return "locked"
	case Finalized:
		return "finalized"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

type SlashingRequest struct {
	Request RequestSlashingPayload `json:"request"`
	Service string                 `json:"service"`
	// Destination of the slashed assets, captured from the service's slashing
	// parameters at request time. Burned when nil.
	Destination   *string               `json:"destination"`
	RequestTime   int64                 `json:"request_time"`
	RequestExpiry int64                 `json:"request_expiry"`
	Status        SlashingRequestStatus `json:"status"`
	// Sequence counts the requests made for the (service, operator) pair
	// before this one.
	Sequence uint64 `json:"sequence"`
}

// Expired reports whether the request can no longer be locked or finalized.
func (r SlashingRequest) Expired(now time.Time) bool {
	return now.Unix() >= r.RequestExpiry
}

// Active reports whether the request blocks a new request for the same
// (service, operator).
func (r SlashingRequest) Active(now time.Time) bool {
	switch r.Status {
	case Requested, Locked:
		return !r.Expired(now)
	}
	return false
}

// RequestID is the hex sha256 of the service address followed by the JSON of
// the request record as first stored. The sequence keeps ids unique when the
// same payload is requested twice in one block.
func RequestID(r SlashingRequest) (string, error) {
	bz, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(r.Service))
	h.Write(bz)
	return hex.EncodeToString(h.Sum(nil)), nil
}
