package explorer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"folio/core/events"
	"folio/core/types"
)

// EventRecord is one persisted protocol event. Attributes hold the event's
// key/value payload as JSON so the schema survives new event types without
// migrations.
type EventRecord struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Type       string    `gorm:"index" json:"type"`
	Fund       string    `gorm:"index" json:"fund,omitempty"`
	Attributes string    `json:"attributes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Indexer persists every emitted protocol event for off-chain reconstruction.
// It satisfies events.Emitter and can be wired as any engine's sink.
type Indexer struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open creates or opens the SQLite event store at the given path. Use
// ":memory:" for an ephemeral store.
func Open(path string, log *slog.Logger) (*Indexer, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, fmt.Errorf("explorer: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("explorer: migrate: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{db: db, log: log}, nil
}

type payloadEvent interface {
	Event() *types.Event
}

// Emit persists the event. Emitter is a fire-and-forget interface, so a
// failed write is logged rather than propagated; the protocol state machine
// never depends on the indexer.
func (ix *Indexer) Emit(event events.Event) {
	if ix == nil || event == nil {
		return
	}
	carrier, ok := event.(payloadEvent)
	if !ok {
		return
	}
	payload := carrier.Event()
	attrs, err := json.Marshal(payload.Attributes)
	if err != nil {
		ix.log.Warn("explorer: encode event", "type", payload.Type, "err", err)
		return
	}
	row := EventRecord{
		Type:       payload.Type,
		Fund:       payload.Attributes["fund"],
		Attributes: string(attrs),
	}
	if err := ix.db.Create(&row).Error; err != nil {
		ix.log.Warn("explorer: persist event", "type", payload.Type, "err", err)
	}
}

// EventsByType returns up to limit newest events of the given type.
func (ix *Indexer) EventsByType(eventType string, limit int) ([]EventRecord, error) {
	var rows []EventRecord
	err := ix.db.Where("type = ?", eventType).Order("id desc").Limit(limit).Find(&rows).Error
	return rows, err
}

// EventsByFund returns up to limit newest events carrying the fund ID.
func (ix *Indexer) EventsByFund(fund string, limit int) ([]EventRecord, error) {
	var rows []EventRecord
	err := ix.db.Where("fund = ?", fund).Order("id desc").Limit(limit).Find(&rows).Error
	return rows, err
}

// Close releases the underlying database handle.
func (ix *Indexer) Close() error {
	db, err := ix.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
