package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/dmitrijs2005/jumptrack/internal/dbx"
	"github.com/dmitrijs2005/jumptrack/internal/server/models"
	equipmentrepo "github.com/dmitrijs2005/jumptrack/internal/server/repositories/equipment"
	friendsrepo "github.com/dmitrijs2005/jumptrack/internal/server/repositories/friends"
	leaderboardrepo "github.com/dmitrijs2005/jumptrack/internal/server/repositories/leaderboard"
	sessionsrepo "github.com/dmitrijs2005/jumptrack/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/jumptrack/internal/server/repositories/users"
)

// memUsersRepo is an in-memory users.Repository enforcing the same
// uniqueness rules as the real schema.
type memUsersRepo struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	calls struct {
		linkProvider int
	}
	createErr error
	// subMisses forces the first N GetByProviderSub calls to miss, to open
	// the lookup/insert race window deterministically.
	subMisses int
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{byID: map[string]*models.User{}}
}

func (f *memUsersRepo) add(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.byID[u.ID] = &cp
}

func (f *memUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if user.Email != "" && u.Email == user.Email {
			return nil, common.ErrorAlreadyExists
		}
		if user.GoogleSub != "" && u.GoogleSub == user.GoogleSub {
			return nil, common.ErrorAlreadyExists
		}
		if user.AppleSub != "" && u.AppleSub == user.AppleSub {
			return nil, common.ErrorAlreadyExists
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	f.byID[user.ID] = &cp
	return user, nil
}

func (f *memUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *memUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email && email != "" {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *memUsersRepo) GetByProviderSub(ctx context.Context, provider models.Provider, sub string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subMisses > 0 {
		f.subMisses--
		return nil, common.ErrorNotFound
	}
	for _, u := range f.byID {
		if (provider == models.ProviderGoogle && u.GoogleSub == sub) ||
			(provider == models.ProviderApple && u.AppleSub == sub) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *memUsersRepo) LinkProvider(ctx context.Context, userID string, provider models.Provider, sub string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.linkProvider++
	u, ok := f.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	switch provider {
	case models.ProviderGoogle:
		u.GoogleSub = sub
	case models.ProviderApple:
		u.AppleSub = sub
	}
	return nil
}

func (f *memUsersRepo) UpdateProfile(ctx context.Context, userID string, nickname *string, avatarIndex *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	if nickname != nil {
		u.Nickname = *nickname
	}
	if avatarIndex != nil {
		u.AvatarIndex = *avatarIndex
	}
	return nil
}

// memSessionsRepo records upserts and serves canned sessions and stats.
type memSessionsRepo struct {
	mu         sync.Mutex
	sessions   map[string]*models.SyncedSession
	jumps      []*models.SyncedJump
	stats      *models.UserStats
	upsertErr  error
	lastLimit  int
	lastOffset int
}

func newMemSessionsRepo() *memSessionsRepo {
	return &memSessionsRepo{sessions: map[string]*models.SyncedSession{}, stats: &models.UserStats{}}
}

func (f *memSessionsRepo) UpsertSession(ctx context.Context, s *models.SyncedSession) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *memSessionsRepo) UpsertJump(ctx context.Context, j *models.SyncedJump) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *j
	f.jumps = append(f.jumps, &cp)
	return nil
}

func (f *memSessionsRepo) List(ctx context.Context, userID string, limit, offset int) ([]*models.SyncedSession, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit, f.lastOffset = limit, offset
	var out []*models.SyncedSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (f *memSessionsRepo) GetByID(ctx context.Context, userID, sessionID string) (*models.SyncedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok && s.UserID == userID {
		cp := *s
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *memSessionsRepo) ListJumps(ctx context.Context, sessionID string) ([]*models.SyncedJump, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.SyncedJump
	for _, j := range f.jumps {
		if j.SessionID == sessionID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *memSessionsRepo) SetTrackKey(ctx context.Context, userID, sessionID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok || s.UserID != userID {
		return common.ErrorNotFound
	}
	s.TrackKey = key
	return nil
}

func (f *memSessionsRepo) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	return f.stats, nil
}

// memFriendsRepo is an in-memory friends.Repository.
type memFriendsRepo struct {
	mu          sync.Mutex
	friendships map[[2]string]bool
	invites     map[string]*models.InviteCode
}

func newMemFriendsRepo() *memFriendsRepo {
	return &memFriendsRepo{friendships: map[[2]string]bool{}, invites: map[string]*models.InviteCode{}}
}

func (f *memFriendsRepo) List(ctx context.Context, userID string) ([]*models.Friend, error) {
	return nil, nil
}

func (f *memFriendsRepo) ListIDs(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.friendships {
		if k[0] == userID {
			out = append(out, k[1])
		}
	}
	return out, nil
}

func (f *memFriendsRepo) AreFriends(ctx context.Context, userID, friendID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.friendships[[2]string{userID, friendID}], nil
}

func (f *memFriendsRepo) CreateFriendship(ctx context.Context, id, userID, friendID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friendships[[2]string{userID, friendID}] = true
	return nil
}

func (f *memFriendsRepo) Delete(ctx context.Context, userID, friendID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.friendships, [2]string{userID, friendID})
	return nil
}

func (f *memFriendsRepo) CreateInvite(ctx context.Context, code, userID string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites[code] = &models.InviteCode{Code: code, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (f *memFriendsRepo) FindValidInvite(ctx context.Context, code string) (*models.InviteCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[code]
	if !ok || inv.UsedBy != "" || !inv.ExpiresAt.After(time.Now()) {
		return nil, common.ErrorNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *memFriendsRepo) MarkInviteUsed(ctx context.Context, code, usedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[code]
	if !ok || inv.UsedBy != "" {
		return common.ErrorNotFound
	}
	inv.UsedBy = usedBy
	now := time.Now()
	inv.UsedAt = &now
	return nil
}

// refreshCall records one RefreshPeriod invocation.
type refreshCall struct {
	userID string
	period models.LeaderboardPeriod
	since  *time.Time
}

// memLeaderboardRepo records refreshes and serves canned board rows.
type memLeaderboardRepo struct {
	mu       sync.Mutex
	refreshs []refreshCall
	friends  []*models.LeaderboardRow
	global   []*models.LeaderboardRow
	rank     int
}

func (f *memLeaderboardRepo) RefreshPeriod(ctx context.Context, userID string, period models.LeaderboardPeriod, since *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshs = append(f.refreshs, refreshCall{userID: userID, period: period, since: since})
	return nil
}

func (f *memLeaderboardRepo) FriendBoard(ctx context.Context, userID string, period models.LeaderboardPeriod) ([]*models.LeaderboardRow, error) {
	return f.friends, nil
}

func (f *memLeaderboardRepo) GlobalBoard(ctx context.Context, period models.LeaderboardPeriod, limit int) ([]*models.LeaderboardRow, error) {
	return f.global, nil
}

func (f *memLeaderboardRepo) UserRank(ctx context.Context, userID string, period models.LeaderboardPeriod) (int, error) {
	return f.rank, nil
}

// memEquipmentRepo is an in-memory equipment.Repository keyed like the real
// (user_id, equipment_id) primary key.
type memEquipmentRepo struct {
	mu        sync.Mutex
	items     map[[2]string]*models.EquipmentItem
	upsertErr error
}

func newMemEquipmentRepo() *memEquipmentRepo {
	return &memEquipmentRepo{items: map[[2]string]*models.EquipmentItem{}}
}

func (f *memEquipmentRepo) List(ctx context.Context, userID string) ([]*models.EquipmentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.EquipmentItem
	for k, item := range f.items {
		if k[0] == userID {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *memEquipmentRepo) Get(ctx context.Context, userID, equipmentID string) (*models.EquipmentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[[2]string{userID, equipmentID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *memEquipmentRepo) Upsert(ctx context.Context, userID string, item *models.EquipmentItem) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *item
	cp.UpdatedAt = time.Now()
	f.items[[2]string{userID, item.EquipmentID}] = &cp
	return nil
}

// fakeRepoManager vends the in-memory repositories regardless of handle, so
// transactional code paths exercise the same state.
type fakeRepoManager struct {
	users       *memUsersRepo
	sessions    *memSessionsRepo
	friends     *memFriendsRepo
	leaderboard *memLeaderboardRepo
	equipment   *memEquipmentRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:       newMemUsersRepo(),
		sessions:    newMemSessionsRepo(),
		friends:     newMemFriendsRepo(),
		leaderboard: &memLeaderboardRepo{},
		equipment:   newMemEquipmentRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.users }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository {
	return m.sessions
}
func (m *fakeRepoManager) Friends(db dbx.DBTX) friendsrepo.Repository { return m.friends }
func (m *fakeRepoManager) Leaderboard(db dbx.DBTX) leaderboardrepo.Repository {
	return m.leaderboard
}
func (m *fakeRepoManager) Equipment(db dbx.DBTX) equipmentrepo.Repository { return m.equipment }
