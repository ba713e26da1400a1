package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/codeshot-be/internal/database"
	"github.com/isdelr/codeshot-be/internal/models"
	pkgerrors "github.com/pkg/errors"
)

// DefaultEventLimit is used when a caller asks for a non-positive number of events.
const DefaultEventLimit = 20

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, username *string) error
	GetRecentEvents(ctx context.Context, username string, limit int) ([]models.Event, error)
}

// EventService provides business logic for the audit log.
type EventService struct {
	db *database.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *database.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, username *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}

	query := s.db.Rebind("INSERT INTO events (id, type, level, message, username, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, event.ID, event.Type, event.Level, event.Message, event.Username, event.CreatedAt)
	return pkgerrors.Wrap(err, "insert event")
}

// GetRecentEvents retrieves the most recent events recorded for username.
func (s *EventService) GetRecentEvents(ctx context.Context, username string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	query := s.db.Rebind("SELECT id, type, level, message, username, created_at FROM events WHERE username = ? ORDER BY created_at DESC LIMIT ?")
	rows, err := s.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "select events")
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.Username, &event.CreatedAt); err != nil {
			return nil, pkgerrors.Wrap(err, "scan event")
		}
		events = append(events, event)
	}
	return events, pkgerrors.Wrap(rows.Err(), "iterate events")
}
