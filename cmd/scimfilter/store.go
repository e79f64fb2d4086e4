package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errUnknownDriver = errors.New("unknown database driver")

// defaultUsersSchema maps the User resource onto the users and emails tables.
const defaultUsersSchema = `
table: users
primaryKey: id
attributes:
  id: id
  userName: user_name
  displayName: display_name
  name.givenName: given_name
  name.familyName: family_name
  meta.created: created_at
  meta.lastModified: last_modified
multiValued:
  emails:
    table: emails
    foreignKey: user_id
    attributes:
      value: value
      type: type
      primary: "primary"
`

// User is a SCIM User row.
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	UserName     string `gorm:"uniqueIndex;not null"`
	DisplayName  string
	GivenName    string
	FamilyName   string
	Title        *string
	UserType     string
	Active       bool
	CreatedAt    time.Time
	LastModified time.Time
	Emails       []Email `gorm:"foreignKey:UserID"`
}

// BeforeCreate assigns a random ID to new users.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Email is one entry of a user's multi-valued emails attribute.
type Email struct {
	ID      uint   `gorm:"primaryKey"`
	UserID  string `gorm:"size:36;index"`
	Value   string
	Type    string
	Primary bool
}

// openDatabase connects to the named driver. An empty sqlite DSN selects a
// shared in-memory database.
func openDatabase(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	switch driver {
	case "", "sqlite":
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		return gorm.Open(sqlite.Open(dsn), cfg)
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	return nil, fmt.Errorf("%w: %q", errUnknownDriver, driver)
}

// migrateAndSeed creates the tables and inserts sample users into an empty database.
func migrateAndSeed(db *gorm.DB) (int64, error) {
	if err := db.AutoMigrate(&User{}, &Email{}); err != nil {
		return 0, fmt.Errorf("migrate: %w", err)
	}

	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return count, nil
	}

	users := sampleUsers()
	if err := db.Create(&users).Error; err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	return int64(len(users)), nil
}

func sampleUsers() []User {
	guide := "Tour Guide"
	engineer := "Engineer"

	return []User{
		{
			UserName: "bjensen", DisplayName: "Babs Jensen", GivenName: "Barbara", FamilyName: "Jensen",
			Title: &guide, UserType: "Employee", Active: true,
			CreatedAt:    time.Date(2010, 1, 23, 4, 56, 22, 0, time.UTC),
			LastModified: time.Date(2011, 5, 13, 4, 42, 34, 0, time.UTC),
			Emails: []Email{
				{Value: "bjensen@example.com", Type: "work", Primary: true},
				{Value: "babs@jensen.org", Type: "home"},
			},
		},
		{
			UserName: "jsmith", DisplayName: "John Smith", GivenName: "John", FamilyName: "Smith",
			Title: &engineer, UserType: "Contractor", Active: false,
			CreatedAt:    time.Date(2011, 2, 1, 9, 0, 0, 0, time.UTC),
			LastModified: time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
			Emails: []Email{
				{Value: "john@example.org", Type: "work", Primary: true},
			},
		},
		{
			UserName: "mpeters", DisplayName: "Mary Peters", GivenName: "Mary", FamilyName: "Peters",
			UserType: "Employee", Active: true,
			CreatedAt:    time.Date(2012, 6, 15, 12, 30, 0, 0, time.UTC),
			LastModified: time.Date(2013, 3, 3, 8, 15, 0, 0, time.UTC),
		},
	}
}
