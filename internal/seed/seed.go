// Package seed provisions the rows a fresh install needs before the
// first request.
package seed

import (
	"time"

	"gorm.io/gorm"
)

const defaultOrgName = "Main Organization"

// Organization is the tenant row every other table references. The
// dashboard is effectively single-tenant; extra orgs come from ops
// tooling, not the API.
type Organization struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// EnsureDefaultOrg creates the default organization when it does not
// exist yet. A zero orgID leaves seeding to the operator.
func EnsureDefaultOrg(conn *gorm.DB, orgID int64) error {
	if orgID == 0 {
		return nil
	}

	var count int64
	if err := conn.Table("organizations").Where("id = ?", orgID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	return conn.Exec(
		`INSERT INTO organizations (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		orgID, defaultOrgName, now, now,
	).Error
}
