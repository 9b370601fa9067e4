// Package logsink persists access and download log entries off the
// request path. Recording is fire-and-forget: a full queue or a write
// failure never blocks or fails the response being served.
package logsink

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"wingetdepot/internal/models"
)

type Sink struct {
	db   *gorm.DB
	ch   chan models.Log
	done chan struct{}
}

func New(db *gorm.DB) *Sink {
	s := &Sink{
		db:   db,
		ch:   make(chan models.Log, 256),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

// Record queues an entry without blocking. Entries are dropped with a
// warning when the queue is full.
func (s *Sink) Record(entry models.Log) {
	select {
	case s.ch <- entry:
	default:
		log.Warn().Str("kind", entry.Kind).Msg("log sink queue full, entry dropped")
	}
}

// Close drains the queue and stops the writer.
func (s *Sink) Close() {
	close(s.ch)
	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)
	for entry := range s.ch {
		if err := s.db.Create(&entry).Error; err != nil {
			log.Error().Err(err).Str("kind", entry.Kind).Msg("failed to persist log entry")
		}
	}
}
