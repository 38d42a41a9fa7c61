// Package directory exposes the read-only contracts the messaging core needs
// from the listing and user services. Both share the marketplace database, so
// the default implementations query their tables directly; the core never
// writes to them.
package directory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrUserNotFound     = errors.New("user not found")
)

// ListingDirectory resolves property listings for validation and enrichment.
type ListingDirectory interface {
	PropertyExists(ctx context.Context, propertyID int) (bool, error)
	GetPropertyInfo(ctx context.Context, propertyID int) (models.PropertyInfo, error)
}

// UserDirectory resolves users for validation and enrichment.
type UserDirectory interface {
	UserExists(ctx context.Context, userID int) (bool, error)
	GetUserInfo(ctx context.Context, userID int) (models.UserInfo, error)
	BulkUserInfo(ctx context.Context, userIDs []int) (map[int]models.UserInfo, error)
}

// ListingDir is the sqlx-backed ListingDirectory.
type ListingDir struct {
	db *sqlx.DB
}

// NewListingDir constructs a ListingDir.
func NewListingDir(db *sqlx.DB) *ListingDir {
	return &ListingDir{db: db}
}

// PropertyExists reports whether the listing exists.
func (d *ListingDir) PropertyExists(ctx context.Context, propertyID int) (bool, error) {
	var exists bool
	err := d.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM properties WHERE id=$1)`, propertyID)
	return exists, err
}

// GetPropertyInfo returns display data for a listing: owner, title and the
// first image as thumbnail.
func (d *ListingDir) GetPropertyInfo(ctx context.Context, propertyID int) (models.PropertyInfo, error) {
	var info models.PropertyInfo
	err := d.db.GetContext(ctx, &info, `SELECT p.id, p.owner_id, p.title,
        COALESCE((SELECT url FROM property_images WHERE property_id=p.id ORDER BY position LIMIT 1), '') AS thumbnail_url
        FROM properties p WHERE p.id=$1`, propertyID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PropertyInfo{}, ErrPropertyNotFound
	}
	return info, err
}

// UserDir is the sqlx-backed UserDirectory.
type UserDir struct {
	db *sqlx.DB
}

// NewUserDir constructs a UserDir.
func NewUserDir(db *sqlx.DB) *UserDir {
	return &UserDir{db: db}
}

// UserExists reports whether the user exists.
func (d *UserDir) UserExists(ctx context.Context, userID int) (bool, error) {
	var exists bool
	err := d.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID)
	return exists, err
}

// GetUserInfo returns display data for one user.
func (d *UserDir) GetUserInfo(ctx context.Context, userID int) (models.UserInfo, error) {
	var info models.UserInfo
	err := d.db.GetContext(ctx, &info, `SELECT id, name, COALESCE(avatar_url, '') AS avatar_url
        FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserInfo{}, ErrUserNotFound
	}
	return info, err
}

// BulkUserInfo fetches display data for many users in one query.
func (d *UserDir) BulkUserInfo(ctx context.Context, userIDs []int) (map[int]models.UserInfo, error) {
	result := make(map[int]models.UserInfo, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, COALESCE(avatar_url, '') AS avatar_url
        FROM users WHERE id IN (?)`, userIDs)
	if err != nil {
		return nil, err
	}
	query = d.db.Rebind(query)

	var infos []models.UserInfo
	if err := d.db.SelectContext(ctx, &infos, query, args...); err != nil {
		return nil, err
	}
	for _, info := range infos {
		result[info.ID] = info
	}
	return result, nil
}
