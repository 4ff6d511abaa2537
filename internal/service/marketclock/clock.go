// Package marketclock maps wall-clock time to a US trading-session label.
// Sessions: Pre-Market 04:00-09:30, Regular 09:30-16:00, Post-Market
// 16:00-20:00, Closed otherwise. Weekends are Closed; holidays are not
// considered.
package marketclock

import (
	"time"

	"Heatmap/internal/domain/models"
)

const (
	SessionPreMarket  = "Pre-Market"
	SessionRegular    = "Regular"
	SessionPostMarket = "Post-Market"
	SessionClosed     = "Closed"
)

var newYork *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	newYork = loc
}

// Status computes the session for the given instant. Pass time.Now() for the
// live status; tests inject fixed timestamps.
func Status(now time.Time) models.MarketStatus {
	ny := now.In(newYork)
	status := models.MarketStatus{
		IsOpen:    false,
		Session:   SessionClosed,
		Timestamp: now.Unix(),
	}

	switch ny.Weekday() {
	case time.Saturday, time.Sunday:
		return status
	}

	minutes := ny.Hour()*60 + ny.Minute()
	switch {
	case minutes >= 4*60 && minutes < 9*60+30:
		status.Session = SessionPreMarket
	case minutes >= 9*60+30 && minutes < 16*60:
		status.IsOpen = true
		status.Session = SessionRegular
	case minutes >= 16*60 && minutes < 20*60:
		status.Session = SessionPostMarket
	}
	return status
}
