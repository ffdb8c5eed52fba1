package accounts_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"storefront/internal/accounts"
	"storefront/internal/models"
	"storefront/internal/repository/memory"
)

type AccountsSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	svc   *accounts.Service
}

func (s *AccountsSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.svc = accounts.NewService(s.store, accounts.WithTokenGenerator(func() string { return "token-1" }))
}

func TestAccountsSuite(t *testing.T) {
	suite.Run(t, new(AccountsSuite))
}

func (s *AccountsSuite) TestRegisterVerifyLogin() {
	u, err := s.svc.Register(s.ctx, " Buyer@Example.com ", "correct horse")
	s.Require().NoError(err)
	s.Equal("buyer@example.com", u.Email)
	s.False(u.IsActive)
	s.Require().NotNil(u.Token)
	s.NotEqual("correct horse", u.PasswordHash)

	_, err = s.svc.Authenticate(s.ctx, "buyer@example.com", "correct horse")
	s.ErrorIs(err, accounts.ErrInactiveUser)

	verified, err := s.svc.Verify(s.ctx, "token-1")
	s.Require().NoError(err)
	s.True(verified.IsActive)
	s.Nil(verified.Token)

	_, err = s.svc.Verify(s.ctx, "token-1")
	s.ErrorIs(err, accounts.ErrInvalidToken)

	logged, err := s.svc.Authenticate(s.ctx, "BUYER@example.com", "correct horse")
	s.Require().NoError(err)
	s.Equal(u.ID, logged.ID)

	_, err = s.svc.Authenticate(s.ctx, "buyer@example.com", "wrong horse")
	s.ErrorIs(err, accounts.ErrInvalidCredentials)
	_, err = s.svc.Authenticate(s.ctx, "nobody@example.com", "correct horse")
	s.ErrorIs(err, accounts.ErrInvalidCredentials)
}

func (s *AccountsSuite) TestRegisterValidation() {
	_, err := s.svc.Register(s.ctx, "not-an-email", "correct horse")
	s.ErrorIs(err, accounts.ErrInvalidEmail)

	_, err = s.svc.Register(s.ctx, "Name <a@example.com>", "correct horse")
	s.ErrorIs(err, accounts.ErrInvalidEmail)

	_, err = s.svc.Register(s.ctx, "a@example.com", "short")
	s.ErrorIs(err, accounts.ErrWeakPassword)

	_, err = s.svc.Register(s.ctx, "a@example.com", strings.Repeat("x", 80))
	s.ErrorIs(err, accounts.ErrLongPassword)
	_, err = s.svc.CreateSuperuser(s.ctx, "root@example.com", strings.Repeat("x", 73))
	s.ErrorIs(err, accounts.ErrLongPassword)

	_, err = s.svc.Register(s.ctx, "a@example.com", "correct horse")
	s.Require().NoError(err)
	_, err = s.svc.Register(s.ctx, "A@example.com", "another horse")
	s.ErrorIs(err, accounts.ErrEmailTaken)
}

func (s *AccountsSuite) TestVerifyEmptyToken() {
	_, err := s.svc.Verify(s.ctx, " ")
	s.ErrorIs(err, accounts.ErrInvalidToken)
}

func (s *AccountsSuite) TestCurrentUser() {
	u, err := s.svc.Register(s.ctx, "a@example.com", "correct horse")
	s.Require().NoError(err)

	_, err = s.svc.CurrentUser(s.ctx, u.ID)
	s.ErrorIs(err, accounts.ErrInactiveUser)

	_, err = s.svc.CurrentUser(s.ctx, 4242)
	s.ErrorIs(err, accounts.ErrUserNotFound)
}

func (s *AccountsSuite) TestUpdateProfile() {
	u, err := s.svc.CreateSuperuser(s.ctx, "admin@example.com", "correct horse")
	s.Require().NoError(err)

	phone := " +7 900 000-00-00 "
	avatar := "/media/users/avatar/1.png"
	updated, err := s.svc.UpdateProfile(s.ctx, u.ID, accounts.ProfilePatch{Phone: &phone, Avatar: &avatar})
	s.Require().NoError(err)
	s.Equal("+7 900 000-00-00", updated.Phone)
	s.Equal(avatar, updated.Avatar)
	s.Empty(updated.Country)

	stored, err := s.store.FindUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(avatar, stored.Avatar)
}

func (s *AccountsSuite) TestCreateSuperuser() {
	u, err := s.svc.CreateSuperuser(s.ctx, "root@example.com", "correct horse")
	s.Require().NoError(err)
	s.True(u.IsActive)
	s.True(u.IsStaff)
	s.True(u.IsSuperuser)
	s.True(u.HasPerm(models.PermEditCategory))

	logged, err := s.svc.Authenticate(s.ctx, "root@example.com", "correct horse")
	s.Require().NoError(err)
	s.Equal(u.ID, logged.ID)
}

func (s *AccountsSuite) TestGrantModerator() {
	_, err := s.svc.GrantModerator(s.ctx, "ghost@example.com")
	s.ErrorIs(err, accounts.ErrUserNotFound)

	u, err := s.svc.Register(s.ctx, "mod@example.com", "correct horse")
	s.Require().NoError(err)
	_, err = s.svc.Verify(s.ctx, *u.Token)
	s.Require().NoError(err)

	granted, err := s.svc.GrantModerator(s.ctx, "mod@example.com")
	s.Require().NoError(err)
	s.True(granted.HasPerms(models.ModeratorPermissions...))

	// granting twice is harmless
	again, err := s.svc.GrantModerator(s.ctx, "mod@example.com")
	s.Require().NoError(err)
	s.Len(again.Permissions, len(models.ModeratorPermissions))
}

func (s *AccountsSuite) TestDeleteUser() {
	u, err := s.svc.CreateSuperuser(s.ctx, "gone@example.com", "correct horse")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeleteUser(s.ctx, " Gone@example.com "))
	_, err = s.svc.CurrentUser(s.ctx, u.ID)
	s.ErrorIs(err, accounts.ErrUserNotFound)
	s.ErrorIs(s.svc.DeleteUser(s.ctx, "gone@example.com"), accounts.ErrUserNotFound)

	// the address is free again
	_, err = s.svc.Register(s.ctx, "gone@example.com", "correct horse")
	s.NoError(err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := models.HashPassword("secret-pass")
	require.NoError(t, err)
	assert.True(t, models.CheckPassword(hash, "secret-pass"))
	assert.False(t, models.CheckPassword(hash, "other-pass"))
}
