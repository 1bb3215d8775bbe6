package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tatianab/campus-life/internal/config"
	"github.com/tatianab/campus-life/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection would otherwise get its own empty database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))
	return db
}

type BlobRepositorySuite struct {
	suite.Suite
	db   *gorm.DB
	repo BlobRepository
	ctx  context.Context
}

func (s *BlobRepositorySuite) SetupTest() {
	s.db = setupTestDB(s.T())
	s.repo = NewBlobRepository(s.db)
	s.ctx = context.Background()
}

func (s *BlobRepositorySuite) TearDownTest() {
	s.NoError(Close(s.db))
}

func (s *BlobRepositorySuite) TestGetMissing() {
	_, err := s.repo.Get(s.ctx, models.SaveKey)
	s.ErrorIs(err, models.ErrNoSave)
}

func (s *BlobRepositorySuite) TestPutOverwrites() {
	s.Require().NoError(s.repo.Put(s.ctx, models.SaveKey, []byte("first")))
	s.Require().NoError(s.repo.Put(s.ctx, models.SaveKey, []byte("second")))

	data, err := s.repo.Get(s.ctx, models.SaveKey)
	s.Require().NoError(err)
	s.Equal("second", string(data))

	var count int64
	s.db.Model(&SaveBlob{}).Count(&count)
	s.Equal(int64(1), count)
}

func (s *BlobRepositorySuite) TestDelete() {
	s.Require().NoError(s.repo.Put(s.ctx, models.SaveKey, []byte("x")))
	s.Require().NoError(s.repo.Delete(s.ctx, models.SaveKey))
	_, err := s.repo.Get(s.ctx, models.SaveKey)
	s.ErrorIs(err, models.ErrNoSave)

	s.NoError(s.repo.Delete(s.ctx, "never-written"))
}

func (s *BlobRepositorySuite) TestKeys() {
	saveA, achA := models.KeysFor("alice")
	saveB, _ := models.KeysFor("bob")
	for _, k := range []string{saveA, achA, saveB} {
		s.Require().NoError(s.repo.Put(s.ctx, k, []byte("x")))
	}

	keys, err := s.repo.Keys(s.ctx, "campus-life/alice/")
	s.Require().NoError(err)
	s.Equal([]string{achA, saveA}, keys)
}

func (s *BlobRepositorySuite) TestKeysTreatsWildcardsLiterally() {
	underscore, _ := models.KeysFor("a_b")
	lookalike, _ := models.KeysFor("axb")
	percent, _ := models.KeysFor("50%")
	for _, k := range []string{underscore, lookalike, percent, "campus-life/500/save"} {
		s.Require().NoError(s.repo.Put(s.ctx, k, []byte("x")))
	}

	keys, err := s.repo.Keys(s.ctx, "campus-life/a_b/")
	s.Require().NoError(err)
	s.Equal([]string{underscore}, keys)

	keys, err = s.repo.Keys(s.ctx, "campus-life/50%/")
	s.Require().NoError(err)
	s.Equal([]string{percent}, keys)
}

func (s *BlobRepositorySuite) TestSaveRoundTrip() {
	state := models.GameState{PlayerName: "小明", Week: 7, Phase: models.PhaseSemester}
	data, err := models.EncodeSave(state)
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Put(s.ctx, models.SaveKey, data))

	got, err := s.repo.Get(s.ctx, models.SaveKey)
	s.Require().NoError(err)
	decoded, err := models.DecodeSave(got)
	s.Require().NoError(err)
	s.Equal("小明", decoded.PlayerName)
	s.Equal(7, decoded.Week)
}

func TestBlobRepositorySuite(t *testing.T) {
	suite.Run(t, new(BlobRepositorySuite))
}

type LeaderboardRepositorySuite struct {
	suite.Suite
	db   *gorm.DB
	repo LeaderboardRepository
	ctx  context.Context
}

func (s *LeaderboardRepositorySuite) SetupTest() {
	s.db = setupTestDB(s.T())
	s.repo = NewLeaderboardRepository(s.db)
	s.ctx = context.Background()
}

func (s *LeaderboardRepositorySuite) TearDownTest() {
	s.NoError(Close(s.db))
}

func entry(name string, score int, challenge *string) models.LeaderboardEntry {
	return models.LeaderboardEntry{
		PlayerName:  name,
		Score:       score,
		ChallengeID: challenge,
		Difficulty:  models.DifficultyNormal,
		Details:     models.LeaderboardDetails{Title: "清北", Rank: 3},
	}
}

func (s *LeaderboardRepositorySuite) TestCreateAssignsID() {
	id, err := s.repo.Create(s.ctx, entry("a", 100, nil))
	s.Require().NoError(err)
	s.Len(id, 36)
}

func (s *LeaderboardRepositorySuite) TestTopOrdersAndLimits() {
	for i, score := range []int{300, 900, 600, 100} {
		_, err := s.repo.Create(s.ctx, entry(string(rune('a'+i)), score, nil))
		s.Require().NoError(err)
	}

	top, err := s.repo.Top(s.ctx, nil, 3)
	s.Require().NoError(err)
	s.Require().Len(top, 3)
	s.Equal(900, top[0].Score)
	s.Equal(600, top[1].Score)
	s.Equal(300, top[2].Score)
	s.Equal("清北", top[0].Details.Title)
	s.Equal(models.DifficultyNormal, top[0].Difficulty)
}

func (s *LeaderboardRepositorySuite) TestTopSeparatesChallenges() {
	weekly := "weekly-42"
	_, err := s.repo.Create(s.ctx, entry("open", 500, nil))
	s.Require().NoError(err)
	_, err = s.repo.Create(s.ctx, entry("challenger", 400, &weekly))
	s.Require().NoError(err)

	open, err := s.repo.Top(s.ctx, nil, 10)
	s.Require().NoError(err)
	s.Require().Len(open, 1)
	s.Equal("open", open[0].PlayerName)
	s.Nil(open[0].ChallengeID)

	ch, err := s.repo.Top(s.ctx, &weekly, 10)
	s.Require().NoError(err)
	s.Require().Len(ch, 1)
	s.Equal("challenger", ch[0].PlayerName)
	s.Require().NotNil(ch[0].ChallengeID)
	s.Equal(weekly, *ch[0].ChallengeID)
}

func TestLeaderboardRepositorySuite(t *testing.T) {
	suite.Run(t, new(LeaderboardRepositorySuite))
}

func TestOpen_SQLite(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(&config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             dir + "/data/test.db",
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Minute,
		LogLevel:        "silent",
		AutoMigrate:     true,
	}, zap.NewNop())
	require.NoError(t, err)
	defer Close(db)

	assert.True(t, db.Migrator().HasTable(&SaveBlob{}))
	assert.True(t, db.Migrator().HasTable(&LeaderboardRow{}))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"}, nil)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, parseLogLevel("silent"))
	assert.Equal(t, logger.Info, parseLogLevel("info"))
	assert.Equal(t, logger.Warn, parseLogLevel(""))
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	base := NewGormLogger(zap.NewNop(), logger.Warn)
	quiet := base.LogMode(logger.Silent).(*GormLogger)
	assert.Equal(t, logger.Silent, quiet.logLevel)
	assert.Equal(t, logger.Warn, base.logLevel)
}
