package repositories

import (
	"testing"
	"time"

	"pairchat/domain/chat"
	apperr "pairchat/errors"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func Test_Create_And_Get_User(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	created, err := f.users.CreateUser("alice", "argon-hash", at)
	req.NoError(err)
	req.NotZero(created.ID)

	fetched, err := f.users.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal(created, fetched)
	req.Equal(at, fetched.CreatedAt)
	req.Equal("argon-hash", fetched.PasswordHash)
}

func Test_Create_User_With_Taken_Username(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.user(t, "alice")

	_, err := f.users.CreateUser("alice", "other", time.Now())
	req.ErrorIs(err, apperr.ErrDuplicateUsername)

	users, err := f.users.ListUsers()
	req.NoError(err)
	req.Len(users, 1)
}

func Test_Get_Unknown_User(t *testing.T) {
	_, err := newFixture(t).users.GetUserByUsername("nobody")
	require.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func Test_Get_Users_By_IDs_Skips_Unknown_And_Duplicates(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	users, err := f.users.GetUsersByIDs([]chat.UserID{alice.ID, 9999, bob.ID, alice.ID})
	req.NoError(err)
	req.Equal([]string{"alice", "bob"}, lo.Map(users, func(u chat.User, _ int) string {
		return u.Username
	}))
}

func Test_List_Users_Ordered_By_ID(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	for _, name := range []string{"carol", "alice", "bob"} {
		f.user(t, name)
	}

	users, err := f.users.ListUsers()
	req.NoError(err)
	req.Len(users, 3)
	req.Equal("carol", users[0].Username)
	req.Less(users[0].ID, users[1].ID)
	req.Less(users[1].ID, users[2].ID)
}
