package model

import "time"

// Sport is a catalog entry users can attach to their profiles via the
// user_sports join table.
type Sport struct {
	ID        uint64    // sports.id
	Name      string    // sports.name
	Icon      *string   // sports.icon (nullable)
	CreatedAt time.Time // sports.created_at
}
