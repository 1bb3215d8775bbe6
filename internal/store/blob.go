package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tatianab/campus-life/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveBlob is one stored save or achievement set.
type SaveBlob struct {
	ID        uint   `gorm:"primaryKey"`
	BlobKey   string `gorm:"size:191;uniqueIndex;not null"`
	Data      []byte `gorm:"not null"`
	Version   int    `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SaveBlob) TableName() string {
	return "save_blobs"
}

// BlobRepository is a models.BlobStore backed by the save_blobs table.
type BlobRepository interface {
	models.BlobStore
	Keys(ctx context.Context, prefix string) ([]string, error)
}

type blobRepo struct {
	db *gorm.DB
}

func NewBlobRepository(db *gorm.DB) BlobRepository {
	return &blobRepo{db: db}
}

func (r *blobRepo) Put(ctx context.Context, key string, data []byte) error {
	blob := SaveBlob{BlobKey: key, Data: data, Version: models.SaveVersion}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blob_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "version", "updated_at"}),
		}).
		Create(&blob).Error
}

func (r *blobRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var blob SaveBlob
	err := r.db.WithContext(ctx).Where("blob_key = ?", key).First(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNoSave
	}
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

func (r *blobRepo) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("blob_key = ?", key).Delete(&SaveBlob{}).Error
}

// likeEscaper quotes LIKE wildcards with '!', which every supported
// dialect accepts as an ESCAPE character.
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// Keys lists stored keys starting with prefix.
func (r *blobRepo) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&SaveBlob{}).
		Where("blob_key LIKE ? ESCAPE '!'", likeEscaper.Replace(prefix)+"%").
		Order("blob_key").
		Pluck("blob_key", &keys).Error
	return keys, err
}
