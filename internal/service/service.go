package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func newUid() string {
	return uuid.New().String()
}

func overdueDescription(due, returned time.Time) string {
	days := int(returned.Sub(due).Hours() / 24)
	return fmt.Sprintf("overdue by %d day(s), due %s", days, due.Format(time.DateOnly))
}
