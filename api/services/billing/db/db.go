package db

import (
	"fmt"

	"github.com/rvalette/mealmind/api/database"
)

// RecordFailure appends a webhook event whose transition could not be applied
// to the dead-letter table. The provider is acknowledged regardless, so this
// row is the only trace of the lost transition; an operator (or a future
// replayer) works from here.
func RecordFailure(eventID, eventType, failure string, payload []byte) error {
	_, err := database.GetDB().Exec(
		"INSERT INTO webhook_dead_letter (event_id, event_type, failure, payload) VALUES ($1, $2, $3, $4)",
		eventID, eventType, failure, payload)
	if err != nil {
		return fmt.Errorf("failed to insert dead letter: %w", err)
	}
	return nil
}
