package auth

import (
	"context"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/redis/go-redis/v9"

	"campustube/pkg/models"
)

type dbDenylist struct {
	db *gorm.DB
}

// NewDBDenylist keeps revoked token ids in the revoked_tokens table.
func NewDBDenylist(db *gorm.DB) Denylist {
	return &dbDenylist{db: db}
}

func (d *dbDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	// Drop entries whose tokens would be rejected as expired anyway.
	if err := d.db.Where("expires_at < ?", time.Now()).Delete(&models.RevokedToken{}).Error; err != nil {
		return err
	}
	return d.db.Save(&models.RevokedToken{ID: tokenID, ExpiresAt: expiresAt}).Error
}

func (d *dbDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	var n int
	if err := d.db.Model(&models.RevokedToken{}).Where("id = ?", tokenID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

type redisDenylist struct {
	rdb *redis.Client
}

// NewRedisDenylist keeps revoked token ids as keys expiring with the token.
func NewRedisDenylist(rdb *redis.Client) Denylist {
	return &redisDenylist{rdb: rdb}
}

func revokedKey(tokenID string) string {
	return "campustube:revoked:" + tokenID
}

func (d *redisDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, revokedKey(tokenID), 1, ttl).Err()
}

func (d *redisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
