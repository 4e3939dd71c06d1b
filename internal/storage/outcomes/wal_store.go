// Package outcomes persists order outcomes in a WAL for audit and streaming.
// The in-memory order store stays authoritative; this journal only feeds the
// web UI and post-mortem inspection.
package outcomes

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"

	"github.com/kongtrade/kongbot/internal/domain"
)

const (
	defaultJournalDir   = "./wal/outcomes"
	journalSegmentLimit = 1000
	journalMaxSegments  = 100
	journalKeyPrefix    = "outcome_"
)

// Record is a journaled order outcome.
type Record struct {
	RecordID      string             `json:"record_id"`
	TradeID       uint64             `json:"trade_id"`
	Owner         string             `json:"owner"`
	Pair          string             `json:"pair"`
	Type          string             `json:"type"`
	Status        domain.OrderStatus `json:"status"`
	ExecutedPrice decimal.Decimal    `json:"executed_price"`
	Amount        decimal.Decimal    `json:"amount"`
	LimitPrice    decimal.Decimal    `json:"limit_price"`
	Timestamp     time.Time          `json:"ts"`
}

// NewRecord builds a journal record from an order and its outcome.
func NewRecord(order domain.Order, outcome domain.Outcome) Record {
	return Record{
		RecordID:      uuid.New().String(),
		TradeID:       outcome.ID,
		Owner:         order.Owner,
		Pair:          order.Pair.String(),
		Type:          order.Type.String(),
		Status:        outcome.Status,
		ExecutedPrice: outcome.ExecutedPrice,
		Amount:        outcome.Amount,
		LimitPrice:    outcome.LimitPrice,
		Timestamp:     outcome.Timestamp,
	}
}

// IndexedRecord pairs a record with its WAL index for incremental streaming.
type IndexedRecord struct {
	Index  uint64
	Record Record
}

// WALStore is a gowal-backed append-only outcome journal.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes the journal under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultJournalDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: journalSegmentLimit,
		MaxSegments:      journalMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init outcome journal WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Append writes the record to the journal.
func (s *WALStore) Append(record Record) error {
	if s == nil || s.wal == nil {
		return errors.New("outcome journal is not initialized")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal outcome record")
	}

	key := fmt.Sprintf("%s%d", journalKeyPrefix, record.TradeID)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// RecordsAfter returns all records written after the provided WAL index.
func (s *WALStore) RecordsAfter(index uint64) ([]IndexedRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("outcome journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]IndexedRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, journalKeyPrefix) {
			continue
		}
		var record Record
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, errors.Wrap(err, "decode outcome record")
		}
		records = append(records, IndexedRecord{Index: idx, Record: record})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("outcome journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
