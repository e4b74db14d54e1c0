package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/dmitrijs2005/jumptrack/internal/dbx"
	sc "github.com/dmitrijs2005/jumptrack/internal/server/config"
	"github.com/dmitrijs2005/jumptrack/internal/server/models"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// trackURLValidity bounds how long presigned track URLs stay usable.
const trackURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// SessionSync is one session with its jumps uploaded by a client.
type SessionSync struct {
	Session *models.SyncedSession
	Jumps   []*models.SyncedJump
}

// SyncIssue reports why a single session in a batch was rejected.
type SyncIssue struct {
	ID  string
	Err string
}

// SyncResult lists sessions that were stored and sessions that were rejected.
type SyncResult struct {
	Synced []string
	Errors []SyncIssue
}

// SyncService stores uploaded sessions, scores their jumps, refreshes the
// uploader's leaderboard aggregates, and hands out presigned URLs for raw
// GPS track files.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	leaderboard *LeaderboardService
	config      *sc.Config
}

func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, lb *LeaderboardService, cfg *sc.Config) *SyncService {
	return &SyncService{
		db:          db,
		repomanager: m,
		leaderboard: lb,
		config:      cfg,
	}
}

// jumpScore converts a jump's airtime, height, and distance into points.
func jumpScore(j *models.SyncedJump) float64 {
	return float64(j.AirtimeMs)/100*40 + j.HeightM*30 + j.DistanceM*10
}

// Sync upserts a batch of sessions. Each session and its jumps are applied
// in their own transaction so one bad entry does not sink the batch; failures
// are collected per session. Leaderboard aggregates are refreshed once at the
// end when anything was stored.
func (s *SyncService) Sync(ctx context.Context, userID string, batch []*SessionSync) (*SyncResult, error) {
	result := &SyncResult{}

	for _, entry := range batch {
		if entry.Session == nil || entry.Session.ID == "" {
			result.Errors = append(result.Errors, SyncIssue{Err: "session id is required"})
			continue
		}
		if err := s.syncOne(ctx, userID, entry); err != nil {
			result.Errors = append(result.Errors, SyncIssue{ID: entry.Session.ID, Err: err.Error()})
			continue
		}
		result.Synced = append(result.Synced, entry.Session.ID)
	}

	if len(result.Synced) > 0 {
		if err := s.leaderboard.RefreshAll(ctx, userID); err != nil {
			return nil, fmt.Errorf("error refreshing leaderboard: %v", err)
		}
	}

	return result, nil
}

func (s *SyncService) syncOne(ctx context.Context, userID string, entry *SessionSync) error {
	session := entry.Session
	session.UserID = userID

	var total float64
	for _, j := range entry.Jumps {
		j.Score = jumpScore(j)
		total += j.Score
	}
	session.TotalScore = total

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Sessions(tx)

		if err := repo.UpsertSession(ctx, session); err != nil {
			return err
		}
		for _, j := range entry.Jumps {
			j.SessionID = session.ID
			j.UserID = userID
			if err := repo.UpsertJump(ctx, j); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListSessions returns a page of the user's synced sessions, newest first,
// with the total count.
func (s *SyncService) ListSessions(ctx context.Context, userID string, limit, offset int) ([]*models.SyncedSession, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repomanager.Sessions(s.db).List(ctx, userID, limit, offset)
}

// GetSession returns one of the user's sessions with its jumps.
func (s *SyncService) GetSession(ctx context.Context, userID, sessionID string) (*models.SyncedSession, []*models.SyncedJump, error) {
	repo := s.repomanager.Sessions(s.db)

	session, err := repo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	jumps, err := repo.ListJumps(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return session, jumps, nil
}

func trackStorageKey(userID, sessionID string) string {
	return fmt.Sprintf("tracks/%s/%s", userID, sessionID)
}

func (s *SyncService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// GetTrackUploadURL presigns a PUT for the raw GPS track of one of the
// user's sessions and records the storage key on the session.
func (s *SyncService) GetTrackUploadURL(ctx context.Context, userID, sessionID string) (string, string, error) {
	repo := s.repomanager.Sessions(s.db)
	if _, err := repo.GetByID(ctx, userID, sessionID); err != nil {
		return "", "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := trackStorageKey(userID, sessionID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(trackURLValidity))
	if err != nil {
		return "", "", err
	}

	if err := repo.SetTrackKey(ctx, userID, sessionID, key); err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// GetTrackDownloadURL presigns a GET for a previously uploaded track.
// Sessions without a track yield common.ErrorNotFound.
func (s *SyncService) GetTrackDownloadURL(ctx context.Context, userID, sessionID string) (string, error) {
	session, err := s.repomanager.Sessions(s.db).GetByID(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	if session.TrackKey == "" {
		return "", fmt.Errorf("%w: no track uploaded", common.ErrorNotFound)
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &session.TrackKey,
	}, s3.WithPresignExpires(trackURLValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
