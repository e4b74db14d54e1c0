package httpapi

import (
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/server/models"
	"github.com/dmitrijs2005/jumptrack/internal/server/services"
)

type userDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	Nickname    string    `json:"nickname"`
	AvatarIndex int       `json:"avatarIndex"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserDTO(u *models.User) *userDTO {
	return &userDTO{
		ID:          u.ID,
		Email:       u.Email,
		Nickname:    u.Nickname,
		AvatarIndex: u.AvatarIndex,
		CreatedAt:   u.CreatedAt,
	}
}

// toPublicUserDTO omits the email.
func toPublicUserDTO(u *models.User) *userDTO {
	d := toUserDTO(u)
	d.Email = ""
	return d
}

type statsDTO struct {
	TotalSessions int     `json:"totalSessions"`
	TotalJumps    int     `json:"totalJumps"`
	TotalScore    float64 `json:"totalScore"`
	BestJumpScore float64 `json:"bestJumpScore"`
	BestAirtimeMs int64   `json:"bestAirtimeMs"`
}

func toStatsDTO(s *models.UserStats) *statsDTO {
	return &statsDTO{
		TotalSessions: s.TotalSessions,
		TotalJumps:    s.TotalJumps,
		TotalScore:    s.TotalScore,
		BestJumpScore: s.BestJumpScore,
		BestAirtimeMs: s.BestAirtimeMs,
	}
}

type authResponseDTO struct {
	Token     string   `json:"token"`
	User      *userDTO `json:"user"`
	IsNewUser bool     `json:"isNewUser"`
}

func toAuthResponseDTO(r *services.AuthResult) *authResponseDTO {
	return &authResponseDTO{
		Token:     r.Token,
		User:      toUserDTO(r.User),
		IsNewUser: r.IsNewUser,
	}
}

type sessionDTO struct {
	ID             string     `json:"id"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
	ResortName     string     `json:"resortName,omitempty"`
	TotalJumps     int        `json:"totalJumps"`
	MaxAirtimeMs   int64      `json:"maxAirtimeMs"`
	TotalVerticalM float64    `json:"totalVerticalM"`
	TotalScore     float64    `json:"totalScore"`
	HasTrack       bool       `json:"hasTrack"`
	SyncedAt       time.Time  `json:"syncedAt"`
}

func toSessionDTO(s *models.SyncedSession) *sessionDTO {
	return &sessionDTO{
		ID:             s.ID,
		StartedAt:      s.StartedAt,
		EndedAt:        s.EndedAt,
		ResortName:     s.ResortName,
		TotalJumps:     s.TotalJumps,
		MaxAirtimeMs:   s.MaxAirtimeMs,
		TotalVerticalM: s.TotalVerticalM,
		TotalScore:     s.TotalScore,
		HasTrack:       s.TrackKey != "",
		SyncedAt:       s.SyncedAt,
	}
}

type jumpDTO struct {
	ID                 string   `json:"id"`
	RunID              string   `json:"runId"`
	TakeoffTimestampUs int64    `json:"takeoffTimestampUs"`
	LandingTimestampUs int64    `json:"landingTimestampUs"`
	AirtimeMs          int64    `json:"airtimeMs"`
	DistanceM          float64  `json:"distanceM"`
	HeightM            float64  `json:"heightM"`
	SpeedKmh           float64  `json:"speedKmh"`
	LandingGForce      float64  `json:"landingGForce"`
	LatTakeoff         *float64 `json:"latTakeoff,omitempty"`
	LonTakeoff         *float64 `json:"lonTakeoff,omitempty"`
	LatLanding         *float64 `json:"latLanding,omitempty"`
	LonLanding         *float64 `json:"lonLanding,omitempty"`
	AltitudeTakeoff    *float64 `json:"altitudeTakeoff,omitempty"`
	Score              float64  `json:"score"`
	TrickLabel         string   `json:"trickLabel,omitempty"`
}

func toJumpDTO(j *models.SyncedJump) *jumpDTO {
	return &jumpDTO{
		ID:                 j.ID,
		RunID:              j.RunID,
		TakeoffTimestampUs: j.TakeoffTimestampUs,
		LandingTimestampUs: j.LandingTimestampUs,
		AirtimeMs:          j.AirtimeMs,
		DistanceM:          j.DistanceM,
		HeightM:            j.HeightM,
		SpeedKmh:           j.SpeedKmh,
		LandingGForce:      j.LandingGForce,
		LatTakeoff:         j.LatTakeoff,
		LonTakeoff:         j.LonTakeoff,
		LatLanding:         j.LatLanding,
		LonLanding:         j.LonLanding,
		AltitudeTakeoff:    j.AltitudeTakeoff,
		Score:              j.Score,
		TrickLabel:         j.TrickLabel,
	}
}

type friendDTO struct {
	UserID      string    `json:"userId"`
	Nickname    string    `json:"nickname"`
	AvatarIndex int       `json:"avatarIndex"`
	Status      string    `json:"status"`
	Since       time.Time `json:"since"`
}

func toFriendDTO(f *models.Friend) *friendDTO {
	return &friendDTO{
		UserID:      f.UserID,
		Nickname:    f.Nickname,
		AvatarIndex: f.AvatarIndex,
		Status:      f.Status,
		Since:       f.Since,
	}
}

type boardEntryDTO struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"userId"`
	Nickname      string  `json:"nickname"`
	AvatarIndex   int     `json:"avatarIndex"`
	TotalScore    float64 `json:"totalScore"`
	TotalJumps    int     `json:"totalJumps"`
	BestJumpScore float64 `json:"bestJumpScore"`
	BestAirtimeMs int64   `json:"bestAirtimeMs"`
	SessionCount  int     `json:"sessionCount"`
	IsMe          bool    `json:"isMe"`
	IsFriend      bool    `json:"isFriend"`
}

type boardDTO struct {
	Entries []*boardEntryDTO `json:"entries"`
	MyRank  int              `json:"myRank"`
}

func toBoardDTO(b *services.Board) *boardDTO {
	out := &boardDTO{Entries: []*boardEntryDTO{}, MyRank: b.MyRank}
	for _, e := range b.Entries {
		out.Entries = append(out.Entries, &boardEntryDTO{
			Rank:          e.Rank,
			UserID:        e.Row.UserID,
			Nickname:      e.Row.Nickname,
			AvatarIndex:   e.Row.AvatarIndex,
			TotalScore:    e.Row.TotalScore,
			TotalJumps:    e.Row.TotalJumps,
			BestJumpScore: e.Row.BestJumpScore,
			BestAirtimeMs: e.Row.BestAirtimeMs,
			SessionCount:  e.Row.SessionCount,
			IsMe:          e.IsMe,
			IsFriend:      e.IsFriend,
		})
	}
	return out
}

// equipmentStateDTO keeps shopUrl nullable in responses the way the client
// stores it.
type equipmentStateDTO struct {
	Owned   bool    `json:"owned"`
	ShopURL *string `json:"shopUrl"`
}

func toEquipmentMapDTO(items []*models.EquipmentItem) map[string]equipmentStateDTO {
	out := make(map[string]equipmentStateDTO, len(items))
	for _, item := range items {
		out[item.EquipmentID] = equipmentStateDTO{Owned: item.Owned, ShopURL: item.ShopURL}
	}
	return out
}
