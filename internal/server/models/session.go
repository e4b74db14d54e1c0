package models

import "time"

// SyncedSession is one on-mountain session uploaded by the mobile client.
// TrackKey holds the object storage key of the raw GPS track, when uploaded.
type SyncedSession struct {
	ID             string
	UserID         string
	StartedAt      time.Time
	EndedAt        *time.Time
	ResortName     string
	TotalJumps     int
	MaxAirtimeMs   int64
	TotalVerticalM float64
	TotalScore     float64
	TrackKey       string
	SyncedAt       time.Time
}

// SyncedJump is a single detected jump within a session.
type SyncedJump struct {
	ID                 string
	SessionID          string
	UserID             string
	RunID              string
	TakeoffTimestampUs int64
	LandingTimestampUs int64
	AirtimeMs          int64
	DistanceM          float64
	HeightM            float64
	SpeedKmh           float64
	LandingGForce      float64
	LatTakeoff         *float64
	LonTakeoff         *float64
	LatLanding         *float64
	LonLanding         *float64
	AltitudeTakeoff    *float64
	Score              float64
	TrickLabel         string
}

// UserStats aggregates a user's synced sessions for profile views.
type UserStats struct {
	TotalSessions int
	TotalJumps    int
	TotalScore    float64
	BestJumpScore float64
	BestAirtimeMs int64
}
