package scimfilter_test

import (
	"strings"
	"testing"

	scimfilter "github.com/nlstn/go-scimfilter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type account struct {
	ID       uint `gorm:"primarykey"`
	UserName string
	Active   bool
	Emails   []accountEmail
}

type accountEmail struct {
	ID        uint `gorm:"primarykey"`
	AccountID uint
	Value     string
	Type      string
}

const accountsSchema = `
table: accounts
attributes:
  userName: user_name
multiValued:
  emails:
    table: account_emails
    foreignKey: account_id
`

func TestWhere(t *testing.T) {
	schema, err := scimfilter.LoadSchema(strings.NewReader(accountsSchema))
	require.NoError(t, err)

	filter, err := scimfilter.Parse(`userName sw "b" and emails[type eq "work"]`, scimfilter.ModeFilter, scimfilter.V2)
	require.NoError(t, err)

	where, args, err := scimfilter.Where("postgres", filter, schema)
	require.NoError(t, err)
	assert.Equal(t, `("accounts"."user_name" ILIKE ? ESCAPE '\') AND (EXISTS (SELECT 1 FROM "account_emails" WHERE "account_emails"."account_id" = "accounts"."id" AND ("account_emails"."type" = ?)))`, where)
	assert.Equal(t, []interface{}{"b%", "work"}, args)

	filter, err = scimfilter.Parse(`userName gt true`, scimfilter.ModeFilter, scimfilter.V2)
	require.NoError(t, err)
	_, _, err = scimfilter.Where("sqlite", filter, schema)
	assert.ErrorIs(t, err, scimfilter.ErrUntranslatable)
	assert.True(t, scimfilter.IsInvalidFilter(err))
}

func TestScope(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&account{}, &accountEmail{}))
	require.NoError(t, db.Create(&[]account{
		{UserName: "bjensen", Active: true, Emails: []accountEmail{{Value: "bjensen@example.com", Type: "work"}}},
		{UserName: "jsmith", Emails: []accountEmail{{Value: "js@example.org", Type: "home"}}},
	}).Error)

	schema, err := scimfilter.LoadSchema(strings.NewReader(accountsSchema))
	require.NoError(t, err)

	p := scimfilter.NewParser()
	filter, err := p.Parse(`emails[type eq "home"] or (active eq true and userName eq "nobody")`)
	require.NoError(t, err)

	var accounts []account
	require.NoError(t, db.Scopes(scimfilter.Scope(filter, schema)).Find(&accounts).Error)
	require.Len(t, accounts, 1)
	assert.Equal(t, "jsmith", accounts[0].UserName)
}
