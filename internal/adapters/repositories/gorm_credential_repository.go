package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/platform/obs"
	"route-planning-service/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var _ ports.CredentialRepository = (*GormCredentialRepository)(nil)

const uniqueViolation = "23505"

type userRecord struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	Username  string    `gorm:"column:username"`
	Email     string    `gorm:"column:email;uniqueIndex"`
	Password  string    `gorm:"column:password"`
	Role      string    `gorm:"column:role;default:user"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (userRecord) TableName() string { return "users" }

// GormCredentialRepository stores credentials in the users table.
type GormCredentialRepository struct {
	db *gorm.DB
}

func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

func (r *GormCredentialRepository) FindByEmail(ctx context.Context, email string) (_ *domain.User, err error) {
	defer obs.Time(ctx, "credentials.FindByEmail")(&err)

	var rec userRecord
	err = r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &domain.User{
		ID:           rec.ID,
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.Password,
		Role:         rec.Role,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

func (r *GormCredentialRepository) Create(ctx context.Context, u *domain.User) (err error) {
	defer obs.Time(ctx, "credentials.Create")(&err)

	rec := userRecord{
		Username: u.Username,
		Email:    normalizeEmail(u.Email),
		Password: u.PasswordHash,
		Role:     u.Role,
	}
	if rec.Role == "" {
		rec.Role = domain.DefaultRole
	}

	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}

	u.ID = rec.ID
	u.Role = rec.Role
	u.CreatedAt = rec.CreatedAt
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
