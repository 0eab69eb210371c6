package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

type services struct {
	store    *memory.Store
	auth     *AuthService
	profiles *ProfileService
	contacts *ContactService
	messages *MessageService
}

func newServices() *services {
	st := memory.New()
	profiles := NewProfileService(st.Profiles())
	return &services{
		store:    st,
		auth:     NewAuthService(st.Accounts(), st.Profiles(), st.Accounts(), "test-secret", time.Hour),
		profiles: profiles,
		contacts: NewContactService(st.Contacts(), profiles),
		messages: NewMessageService(st.Messages(), profiles),
	}
}

func TestSignupAndLogin(t *testing.T) {
	require := require.New(t)
	s := newServices()
	ctx := context.Background()

	resp, err := s.auth.Signup(ctx, SignupInput{Email: "Alice@Example.com", Password: "Secret123", Phone: "999 999 9999"})
	require.NoError(err)
	require.NotEmpty(resp.Session.AccessToken)
	require.Equal("9999999999", resp.Profile.Phone)
	require.Equal("alice@example.com", resp.Session.Email)

	_, err = s.auth.Signup(ctx, SignupInput{Email: "alice@example.com", Password: "Secret123", Phone: "8888888888"})
	require.ErrorIs(err, ErrEmailTaken)

	_, err = s.auth.Signup(ctx, SignupInput{Email: "bob@example.com", Password: "Secret123", Phone: "9999999999"})
	require.ErrorIs(err, ErrPhoneTaken)

	login, err := s.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "Secret123"})
	require.NoError(err)
	require.Equal(resp.Session.AccountID, login.Session.AccountID)

	_, err = s.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	require.ErrorIs(err, ErrInvalidCreds)

	_, err = s.auth.Account(ctx, uuid.New())
	require.ErrorIs(err, ErrAccountNotFound)
}

func TestProfileUpdate(t *testing.T) {
	require := require.New(t)
	s := newServices()
	ctx := context.Background()

	alice := s.store.SeedProfile("9999999999")
	s.store.SeedProfile("8888888888")

	_, err := s.profiles.Update(ctx, alice, domain.ProfileUpdate{})
	require.ErrorIs(err, ErrEmptyUpdate)

	taken := "888-888-8888"
	_, err = s.profiles.Update(ctx, alice, domain.ProfileUpdate{Phone: &taken})
	require.ErrorIs(err, ErrPhoneTaken)

	name, phone := "  Alice ", "(777) 777-7777"
	p, err := s.profiles.Update(ctx, alice, domain.ProfileUpdate{Name: &name, Phone: &phone})
	require.NoError(err)
	require.Equal("Alice", p.Name)
	require.Equal("7777777777", p.Phone)

	id, err := s.profiles.Identity(ctx, alice)
	require.NoError(err)
	require.Equal("7777777777", id)

	_, err = s.profiles.Identity(ctx, uuid.New())
	require.ErrorIs(err, ErrProfileNotFound)
}

func TestContacts(t *testing.T) {
	require := require.New(t)
	s := newServices()
	ctx := context.Background()

	alice := s.store.SeedProfile("9999999999")

	c, err := s.contacts.Add(ctx, alice, AddContactInput{ContactName: " Bob ", ContactNumber: "888 888 8888"})
	require.NoError(err)
	require.Equal("Bob", c.ContactName)
	require.Equal("8888888888", c.ContactNumber)
	require.Equal("9999999999", c.OwnerPhone)

	// duplicates are accepted
	_, err = s.contacts.Add(ctx, alice, AddContactInput{ContactName: "Bob", ContactNumber: "8888888888"})
	require.NoError(err)

	_, err = s.contacts.Add(ctx, alice, AddContactInput{Phone: "1111111111", ContactName: "Eve", ContactNumber: "7777777777"})
	require.ErrorIs(err, ErrNotContactOwner)

	list, err := s.contacts.List(ctx, alice, "")
	require.NoError(err)
	require.Len(list, 2)

	bob := s.store.SeedProfile("8888888888")
	list, err = s.contacts.List(ctx, bob, "")
	require.NoError(err)
	require.NotNil(list)
	require.Empty(list)
}

func TestMessages(t *testing.T) {
	require := require.New(t)
	s := newServices()
	ctx := context.Background()

	alice := s.store.SeedProfile("9999999999")
	bob := s.store.SeedProfile("8888888888")

	empty, err := s.messages.Conversation(ctx, alice, "9999999999", "8888888888")
	require.NoError(err)
	require.NotNil(empty)
	require.Empty(empty)

	m, err := s.messages.Send(ctx, alice, SendMessageInput{Recipient: "8888888888", Content: "  hello <b>bob</b> "})
	require.NoError(err)
	require.Equal("hello <b>bob</b>", m.Content)
	require.Equal("9999999999", m.Sender)
	require.False(m.Timestamp.IsZero())

	_, err = s.messages.Send(ctx, bob, SendMessageInput{Recipient: "9999999999", Content: "hi"})
	require.NoError(err)
	_, err = s.messages.Send(ctx, bob, SendMessageInput{Recipient: "7777777777", Content: "not for alice"})
	require.NoError(err)

	_, err = s.messages.Send(ctx, alice, SendMessageInput{Recipient: "8888888888", Content: " \n\t "})
	require.ErrorIs(err, ErrEmptyContent)

	_, err = s.messages.Send(ctx, alice, SendMessageInput{Sender: "8888888888", Recipient: "9999999999", Content: "spoof"})
	require.ErrorIs(err, ErrNotMessageOwner)

	conv, err := s.messages.Conversation(ctx, alice, "9999999999", "8888888888")
	require.NoError(err)
	require.Len(conv, 2)
	require.Equal("hello <b>bob</b>", conv[0].Content)
	require.Equal("hi", conv[1].Content)

	_, err = s.messages.Conversation(ctx, alice, "8888888888", "7777777777")
	require.ErrorIs(err, ErrNotParticipant)
}

func TestSendStoresContentAsTyped(t *testing.T) {
	require := require.New(t)
	s := newServices()
	alice := s.store.SeedProfile("9999999999")

	for _, content := range []string{
		"a < b & c",
		"if a<b and b>c then",
		"cast to Vec<String>",
		"use <br> here",
		"<script>alert(1)</script>",
	} {
		m, err := s.messages.Send(context.Background(), alice, SendMessageInput{Recipient: "8888888888", Content: "  " + content + "\n"})
		require.NoError(err)
		require.Equal(content, m.Content)
	}
}
