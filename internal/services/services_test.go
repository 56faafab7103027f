package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-crm/auth"
	"github.com/diewo77/go-crm/gate"
	"github.com/diewo77/go-crm/internal/db/dbtest"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/repository"
	"github.com/diewo77/go-crm/internal/storage"
	"github.com/diewo77/go-crm/validation"
)

var fixedNow = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

type env struct {
	users    *repository.UserRepository
	clients  *ClientService
	quotes   *QuoteService
	cards    *CardService
	accounts *AccountService
	stats    *StatsService
	exports  *ExportService
	store    *storage.MemoryStore
	owner    uint
	other    uint
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := dbtest.New(t)
	g := gate.NewOwnerGate()
	users := repository.NewUserRepository(gdb)
	clientRepo := repository.NewClientRepository(gdb)
	quoteRepo := repository.NewQuoteRepository(gdb)
	cardRepo := repository.NewCardRepository(gdb)
	store := storage.NewMemoryStore()

	e := &env{users: users, store: store}
	e.clients = NewClientService(clientRepo, quoteRepo, g)
	e.quotes = NewQuoteService(quoteRepo, e.clients, g, func() time.Time { return fixedNow })
	e.cards = NewCardService(cardRepo, store, g, "https://crm.example")
	e.accounts = NewAccountService(users, auth.NewIssuer("secret", time.Hour), auth.NopRevoker{}, store)
	e.stats = NewStatsService(quoteRepo, clientRepo)
	e.exports = NewExportService(e.quotes, users)

	ctx := context.Background()
	for _, email := range []string{"owner@example.com", "other@example.com"} {
		u := &models.User{Email: email, Password: "x"}
		require.NoError(t, users.Create(ctx, u))
		if e.owner == 0 {
			e.owner = u.ID
		} else {
			e.other = u.ID
		}
	}
	return e
}

func (e *env) client(t *testing.T, owner uint) *models.Client {
	t.Helper()
	c, err := e.clients.Create(context.Background(), owner, ClientInput{Name: "Dupont"})
	require.NoError(t, err)
	return c
}

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestQuoteCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client(t, e.owner)

	q, err := e.quotes.Create(ctx, e.owner, QuoteInput{
		ClientID: c.ID,
		Title:    "Site",
		Items: []models.LineItemInput{
			{Description: "Design", Quantity: decp("2"), UnitPrice: decp("50")},
			{Description: "Livre", UnitPrice: decp("100"), VATRate: decp("5.5")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2025-0001", q.Number)
	assert.Equal(t, models.QuoteStatusDraft, q.Status)
	assert.Equal(t, "EUR", q.Currency)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), q.IssueDate)
	assert.Equal(t, "225.5", q.TotalInclTax.String())

	second, err := e.quotes.Create(ctx, e.owner, QuoteInput{ClientID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2025-0002", second.Number)

	issue := models.NewDate(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC))
	old, err := e.quotes.Create(ctx, e.owner, QuoteInput{ClientID: c.ID, IssueDate: &issue})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2024-0001", old.Number)
}

func TestQuoteCreateRejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	foreign := e.client(t, e.other)
	mine := e.client(t, e.owner)

	_, err := e.quotes.Create(ctx, e.owner, QuoteInput{ClientID: foreign.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.quotes.Create(ctx, e.owner, QuoteInput{
		ClientID: mine.ID,
		Items:    []models.LineItemInput{{Description: ""}},
	})
	v, ok := validation.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "required", v["items[0].description"])
}

func TestQuoteOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client(t, e.owner)
	q, err := e.quotes.Create(ctx, e.owner, QuoteInput{ClientID: c.ID})
	require.NoError(t, err)

	_, err = e.quotes.Get(ctx, e.other, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, e.quotes.Delete(ctx, e.other, q.ID), ErrNotFound)
	_, err = e.quotes.SetStatus(ctx, e.other, q.ID, models.QuoteStatusSent)
	assert.ErrorIs(t, err, ErrNotFound)

	list, total, err := e.quotes.List(ctx, e.other, repository.QuoteFilter{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestQuoteUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client(t, e.owner)
	q, err := e.quotes.Create(ctx, e.owner, QuoteInput{
		ClientID: c.ID,
		Items:    []models.LineItemInput{{Description: "A", UnitPrice: decp("10")}},
	})
	require.NoError(t, err)

	title := "New title"
	items := []models.LineItemInput{{Description: "B", Quantity: decp("3"), UnitPrice: decp("10.005")}}
	updated, err := e.quotes.Update(ctx, e.owner, q.ID, models.QuotePatch{Title: &title, Items: &items})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "36.02", updated.TotalInclTax.StringFixed(2))

	bad := []models.LineItemInput{{Description: "C", VATRate: decp("150")}}
	_, err = e.quotes.Update(ctx, e.owner, q.ID, models.QuotePatch{Items: &bad})
	_, ok := validation.IsValidation(err)
	require.True(t, ok)

	stored, err := e.quotes.Get(ctx, e.owner, q.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "B", stored.Items[0].Description)

	thirds := []models.LineItemInput{{Description: "D", Quantity: decp("0.3333"), UnitPrice: decp("30")}}
	_, err = e.quotes.Update(ctx, e.owner, q.ID, models.QuotePatch{Items: &thirds})
	v, ok := validation.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "too_precise", v["items[0].quantity"])
	_, err = e.quotes.AddItem(ctx, e.owner, q.ID, models.LineItemInput{Description: "E", VATRate: decp("5.555")})
	v, ok = validation.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "too_precise", v["items[1].vatRate"])

	stored, err = e.quotes.Get(ctx, e.owner, q.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "36.02", stored.TotalInclTax.StringFixed(2))

	foreign := e.client(t, e.other)
	_, err = e.quotes.Update(ctx, e.owner, q.ID, models.QuotePatch{ClientID: &foreign.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuoteItems(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client(t, e.owner)
	q, err := e.quotes.Create(ctx, e.owner, QuoteInput{ClientID: c.ID})
	require.NoError(t, err)

	q, err = e.quotes.AddItem(ctx, e.owner, q.ID, models.LineItemInput{Description: "A", UnitPrice: decp("100")})
	require.NoError(t, err)
	assert.Equal(t, "120", q.TotalInclTax.String())

	_, err = e.quotes.AddItem(ctx, e.owner, q.ID, models.LineItemInput{Description: ""})
	_, ok := validation.IsValidation(err)
	assert.True(t, ok)

	q, err = e.quotes.RemoveItem(ctx, e.owner, q.ID, 0)
	require.NoError(t, err)
	assert.True(t, q.TotalInclTax.IsZero())

	_, err = e.quotes.RemoveItem(ctx, e.owner, q.ID, 3)
	_, ok = validation.IsValidation(err)
	assert.True(t, ok)
}

func TestQuoteStatusAcceptPromotesClient(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client(t, e.owner)
	require.True(t, c.IsProspect())
	q, err := e.quotes.Create(ctx, e.owner, QuoteInput{ClientID: c.ID})
	require.NoError(t, err)

	q, err = e.quotes.SetStatus(ctx, e.owner, q.ID, models.QuoteStatusAccepted)
	require.NoError(t, err)
	require.NotNil(t, q.AcceptedAt)
	assert.True(t, q.AcceptedAt.Equal(fixedNow))
	assert.Nil(t, q.SentAt)

	reloaded, err := e.quotes.Get(ctx, e.owner, q.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.AcceptedAt)
	assert.Nil(t, reloaded.SentAt)

	client, err := e.clients.Get(ctx, e.owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClientStatusClient, client.Status)

	_, err = e.quotes.SetStatus(ctx, e.owner, q.ID, "archived")
	_, ok := validation.IsValidation(err)
	assert.True(t, ok)
}

func TestQuoteDuplicate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client(t, e.owner)
	q, err := e.quotes.Create(ctx, e.owner, QuoteInput{
		ClientID: c.ID,
		Title:    "Original",
		Items:    []models.LineItemInput{{Description: "A", UnitPrice: decp("10")}},
	})
	require.NoError(t, err)
	_, err = e.quotes.SetStatus(ctx, e.owner, q.ID, models.QuoteStatusSent)
	require.NoError(t, err)

	cp, err := e.quotes.Duplicate(ctx, e.owner, q.ID)
	require.NoError(t, err)
	assert.NotEqual(t, q.ID, cp.ID)
	assert.Equal(t, "DEV-2025-0002", cp.Number)
	assert.Equal(t, models.QuoteStatusDraft, cp.Status)
	assert.Nil(t, cp.SentAt)
	assert.Equal(t, "Original", cp.Title)

	stored, err := e.quotes.Get(ctx, e.owner, cp.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "12", stored.TotalInclTax.String())

	src, err := e.quotes.Get(ctx, e.owner, q.ID)
	require.NoError(t, err)
	assert.Len(t, src.Items, 1)
}

func TestClientDeleteConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client(t, e.owner)
	q, err := e.quotes.Create(ctx, e.owner, QuoteInput{ClientID: c.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, e.clients.Delete(ctx, e.owner, c.ID), ErrConflict)
	require.NoError(t, e.quotes.Delete(ctx, e.owner, q.ID))
	require.NoError(t, e.clients.Delete(ctx, e.owner, c.ID))
	_, err = e.clients.Get(ctx, e.owner, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientConvertAndUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client(t, e.owner)

	_, err := e.clients.Convert(ctx, e.other, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	converted, err := e.clients.Convert(ctx, e.owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClientStatusClient, converted.Status)

	updated, err := e.clients.Update(ctx, e.owner, c.ID, ClientInput{Name: "Durand", City: "Nantes"})
	require.NoError(t, err)
	assert.Equal(t, "Durand", updated.Name)
	assert.Equal(t, models.ClientStatusClient, updated.Status)
	assert.Equal(t, models.ClientSourceManual, updated.Source)
}

func TestAccountFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	sess, err := e.accounts.Register(ctx, RegisterInput{Email: "New@Example.com", Password: "longenough"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "new@example.com", sess.User.Email)

	_, err = e.accounts.Register(ctx, RegisterInput{Email: "new@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = e.accounts.Login(ctx, LoginInput{Email: "new@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.accounts.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err = e.accounts.Login(ctx, LoginInput{Email: "NEW@example.com", Password: "longenough"})
	require.NoError(t, err)
	require.NoError(t, e.accounts.Logout(ctx, sess.Claims))

	u, err := e.accounts.UpdateProfile(ctx, sess.User.ID, ProfileInput{CompanyName: "ACME", City: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, "ACME", u.CompanyName)
	assert.True(t, e.accounts.Exists(ctx, u.ID))
	assert.False(t, e.accounts.Exists(ctx, 999))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestAccountLogo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.accounts.Logo(ctx, e.owner)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.accounts.SetLogo(ctx, e.owner, []byte("not an image"))
	assert.ErrorIs(t, err, storage.ErrUnsupportedType)

	u, err := e.accounts.SetLogo(ctx, e.owner, pngBytes(t))
	require.NoError(t, err)
	assert.NotEmpty(t, u.LogoKey)
	_, err = e.accounts.SetLogo(ctx, e.owner, pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, 1, e.store.Len())

	obj, err := e.accounts.Logo(ctx, e.owner)
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
}

func TestCardsAndLeads(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	card, err := e.cards.Create(ctx, e.owner, CardInput{DisplayName: "Camille"})
	require.NoError(t, err)
	assert.True(t, card.Active)
	assert.Len(t, card.Slug, 36)
	assert.Equal(t, "https://crm.example/c/"+card.Slug, e.cards.PublicLink(card))

	pub, err := e.cards.View(ctx, card.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Camille", pub.DisplayName)

	lead, err := e.cards.CaptureLead(ctx, card.Slug, LeadInput{Name: "Alice", Email: "alice@example.com", Message: "Call me"})
	require.NoError(t, err)
	assert.Equal(t, e.owner, lead.UserID)
	assert.Equal(t, models.ClientStatusProspect, lead.Status)
	assert.Equal(t, models.ClientSourceCard, lead.Source)
	require.NotNil(t, lead.CardID)
	assert.Equal(t, card.ID, *lead.CardID)

	got, err := e.cards.Get(ctx, e.owner, card.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ViewCount)
	assert.Equal(t, int64(1), got.LeadCount)

	_, err = e.cards.Get(ctx, e.other, card.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	qr, err := e.cards.QRCode(ctx, e.owner, card.ID, 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(qr, []byte("\x89PNG")))

	inactive := false
	_, err = e.cards.Update(ctx, e.owner, card.ID, CardInput{DisplayName: "Camille", Active: &inactive})
	require.NoError(t, err)
	_, err = e.cards.View(ctx, card.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.cards.CaptureLead(ctx, card.Slug, LeadInput{Name: "Bob", Email: "bob@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCardPhoto(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	card, err := e.cards.Create(ctx, e.owner, CardInput{DisplayName: "Camille"})
	require.NoError(t, err)

	_, err = e.cards.Photo(ctx, card.Slug)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.cards.SetPhoto(ctx, e.owner, card.ID, pngBytes(t))
	require.NoError(t, err)
	obj, err := e.cards.Photo(ctx, card.Slug)
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)

}

func TestUploadsWithoutStorage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	accounts := NewAccountService(e.users, auth.NewIssuer("secret", time.Hour), auth.NopRevoker{}, storage.Unavailable{})

	_, err := accounts.SetLogo(ctx, e.owner, pngBytes(t))
	assert.ErrorIs(t, err, storage.ErrUnavailable)

	u, err := accounts.Me(ctx, e.owner)
	require.NoError(t, err)
	assert.Empty(t, u.LogoKey)
}

func TestStatsAndExport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client(t, e.owner)
	q, err := e.quotes.Create(ctx, e.owner, QuoteInput{
		ClientID: c.ID,
		Items:    []models.LineItemInput{{Description: "A", UnitPrice: decp("100")}},
	})
	require.NoError(t, err)
	_, err = e.quotes.SetStatus(ctx, e.owner, q.ID, models.QuoteStatusAccepted)
	require.NoError(t, err)
	_, err = e.quotes.Create(ctx, e.owner, QuoteInput{ClientID: c.ID})
	require.NoError(t, err)

	s, err := e.stats.Summary(ctx, e.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Quotes[models.QuoteStatusAccepted])
	assert.Equal(t, int64(1), s.Quotes[models.QuoteStatusDraft])
	assert.Equal(t, "120", s.AcceptedRevenue.String())
	assert.Equal(t, int64(1), s.Clients[models.ClientStatusClient])

	pdf, name, err := e.exports.QuotePDF(ctx, e.owner, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Number+".pdf", name)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, _, err = e.exports.QuotePDF(ctx, e.other, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
