package attendance

import (
	"errors"

	"github.com/devevents/devevents/internal/httperr"
	"github.com/devevents/devevents/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine owns every mutation of an event's attendee set. Both transitions
// run inside one transaction that locks the event row first, so concurrent
// joins against the last free slot serialize instead of overfilling.
type Engine struct {
	db *gorm.DB
}

func NewEngine(conn *gorm.DB) *Engine {
	return &Engine{db: conn}
}

// Join adds user to the event's attendee set. The host cannot join (they
// are an attendee by construction), full events reject, and duplicate
// joins reject. AttendeeTotal counts non-host attendees, hence the -1.
func (e *Engine) Join(user *models.User, eventID uint) (*models.Event, error) {
	err := e.db.Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, eventID)

		if err != nil {
			return err
		}

		if event.UserID == user.ID {
			return httperr.Forbidden("You are the event host. So you are already an attendee")
		}

		var attendees []models.User

		if err := tx.Model(event).Association("Attendees").Find(&attendees); err != nil {
			return err
		}

		if event.AttendeeTotal == len(attendees)-1 {
			return httperr.Forbidden("Event is already full")
		}

		for _, attendee := range attendees {
			if attendee.ID == user.ID {
				return httperr.Forbidden("You are already an attendee to this event")
			}
		}

		return tx.Model(event).Association("Attendees").Append(user)
	})

	if err != nil {
		return nil, err
	}

	return e.reload(eventID)
}

// Leave removes user from the event's attendee set. The host may never
// leave their own event.
func (e *Engine) Leave(user *models.User, eventID uint) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, eventID)

		if err != nil {
			return err
		}

		if event.UserID == user.ID {
			return httperr.Forbidden("You are the event host. So you cannot unattend")
		}

		var attendees []models.User

		if err := tx.Model(event).Association("Attendees").Find(&attendees); err != nil {
			return err
		}

		attending := false

		for _, attendee := range attendees {
			if attendee.ID == user.ID {
				attending = true
				break
			}
		}

		if !attending {
			return httperr.Forbidden("You are not an attendee to this event")
		}

		return tx.Model(event).Association("Attendees").Delete(user)
	})
}

// lockEvent fetches the event under a row-level lock where the dialect
// supports one. SQLite serializes writers on its own.
func lockEvent(tx *gorm.DB, eventID uint) (*models.Event, error) {
	query := tx

	if tx.Dialector.Name() == "postgres" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var event models.Event

	if err := query.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound()
		}
		return nil, err
	}

	return &event, nil
}

func (e *Engine) reload(eventID uint) (*models.Event, error) {
	var event models.Event

	err := e.db.
		Preload("User").
		Preload("Category").
		Preload("Attendees").
		First(&event, eventID).Error

	if err != nil {
		return nil, err
	}

	return &event, nil
}
