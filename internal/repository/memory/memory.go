// Package memory is an in-process implementation of the repository
// interfaces. It backs STORE_BACKEND=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ repository.Store          = (*Store)(nil)
	_ repository.UserRepository = (*Store)(nil)
)

type relationKey struct {
	owner, other string
	kind         models.RelationKind
}

type state struct {
	users         map[string]models.User
	accounts      map[string]*models.Account
	transactions  []models.CoinTransaction
	relations     map[relationKey]models.FriendRelation
	posts         map[primitive.ObjectID]models.Post
	comments      map[primitive.ObjectID]models.Comment
	messages      []models.DirectMessage
	notifications []models.Notification
	clubs         map[primitive.ObjectID]models.Club
	schools       map[primitive.ObjectID]models.School
	invites       map[string]models.Invite
}

// Store keeps everything in maps guarded by a mutex. Transactions are
// serialised and roll back by restoring a snapshot taken on entry; writes
// outside a transaction wait until no transaction is open.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	s    state
}

func New() *Store {
	return &Store{s: state{
		users:     map[string]models.User{},
		accounts:  map[string]*models.Account{},
		relations: map[relationKey]models.FriendRelation{},
		posts:     map[primitive.ObjectID]models.Post{},
		comments:  map[primitive.ObjectID]models.Comment{},
		clubs:     map[primitive.ObjectID]models.Club{},
		schools:   map[primitive.ObjectID]models.School{},
		invites:   map[string]models.Invite{},
	}}
}

type txKey struct{}

func (m *Store) inTransaction(ctx context.Context) bool {
	return ctx.Value(txKey{}) == m
}

func (m *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// already inside a transaction: join it
	if m.inTransaction(ctx) {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	snap := m.s.clone()
	m.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, m)); err != nil {
		m.mu.Lock()
		m.s = snap
		m.mu.Unlock()
		return err
	}
	return nil
}

// lockWrite takes the write lock. Outside a transaction it also waits for
// txMu, so no write lands between a snapshot and its rollback.
func (m *Store) lockWrite(ctx context.Context) func() {
	joined := m.inTransaction(ctx)
	if !joined {
		m.txMu.Lock()
	}
	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		if !joined {
			m.txMu.Unlock()
		}
	}
}

func (s state) clone() state {
	out := state{
		users:         make(map[string]models.User, len(s.users)),
		accounts:      make(map[string]*models.Account, len(s.accounts)),
		transactions:  append([]models.CoinTransaction(nil), s.transactions...),
		relations:     make(map[relationKey]models.FriendRelation, len(s.relations)),
		posts:         make(map[primitive.ObjectID]models.Post, len(s.posts)),
		comments:      make(map[primitive.ObjectID]models.Comment, len(s.comments)),
		messages:      append([]models.DirectMessage(nil), s.messages...),
		notifications: append([]models.Notification(nil), s.notifications...),
		clubs:         make(map[primitive.ObjectID]models.Club, len(s.clubs)),
		schools:       make(map[primitive.ObjectID]models.School, len(s.schools)),
		invites:       make(map[string]models.Invite, len(s.invites)),
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.accounts {
		out.accounts[k] = cloneAccount(v)
	}
	for k, v := range s.relations {
		out.relations[k] = v
	}
	for k, v := range s.posts {
		v.Votes = cloneVotes(v.Votes)
		out.posts[k] = v
	}
	for k, v := range s.comments {
		v.Votes = cloneVotes(v.Votes)
		out.comments[k] = v
	}
	for k, v := range s.clubs {
		v.GoingToday = append([]string(nil), v.GoingToday...)
		out.clubs[k] = v
	}
	for k, v := range s.schools {
		out.schools[k] = v
	}
	for k, v := range s.invites {
		v.UsedBy = append([]string(nil), v.UsedBy...)
		out.invites[k] = v
	}
	return out
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	c.VIP = append([]models.VIPRecord{}, a.VIP...)
	c.WhoView = append([]models.ViewEntry{}, a.WhoView...)
	c.LastViewedBy = make(map[string]time.Time, len(a.LastViewedBy))
	for k, v := range a.LastViewedBy {
		c.LastViewedBy[k] = v
	}
	if a.SchoolID != nil {
		id := *a.SchoolID
		c.SchoolID = &id
	}
	if a.Birthday != nil {
		b := *a.Birthday
		c.Birthday = &b
	}
	return &c
}

func cloneVotes(v models.Votes) models.Votes {
	return models.Votes{
		Up:   append([]string{}, v.Up...),
		Down: append([]string{}, v.Down...),
	}
}

func page[T any](items []T, limit, skip int64) []T {
	if skip >= int64(len(items)) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && int64(len(items)) > limit {
		items = items[:limit]
	}
	return items
}

// ---- users ----

func (m *Store) CreateUser(ctx context.Context, u *models.User, then func(ctx context.Context) error) error {
	unlock := m.lockWrite(ctx)
	for _, existing := range m.s.users {
		if strings.EqualFold(existing.Username, u.Username) || (u.Phone != "" && existing.Phone == u.Phone) {
			unlock()
			return apperr.Conflict("username or phone already registered")
		}
	}
	m.s.users[u.ID] = *u
	unlock()

	if then == nil {
		return nil
	}
	if err := then(ctx); err != nil {
		unlock := m.lockWrite(ctx)
		delete(m.s.users, u.ID)
		unlock()
		return err
	}
	return nil
}

func (m *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

func (m *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.s.users {
		if strings.EqualFold(u.Username, username) {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (m *Store) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.s.users[id]; ok {
			u := u
			out[id] = &u
		}
	}
	return out, nil
}

func (m *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := m.GetUserByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (m *Store) PhoneExists(ctx context.Context, phone string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.s.users {
		if u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *Store) SetUserFlags(ctx context.Context, id string, admin, verified *bool) (*models.User, error) {
	defer m.lockWrite(ctx)()
	u, ok := m.s.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	if admin != nil {
		u.IsAdmin = *admin
	}
	if verified != nil {
		u.IsVerified = *verified
	}
	m.s.users[id] = u
	return &u, nil
}

func (m *Store) CountUsers(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.s.users)), nil
}

// ---- accounts ----

func (m *Store) CreateAccount(ctx context.Context, acc *models.Account) error {
	defer m.lockWrite(ctx)()
	if _, ok := m.s.accounts[acc.UserID]; ok {
		return apperr.Conflict("account already exists")
	}
	m.s.accounts[acc.UserID] = cloneAccount(acc)
	return nil
}

func (m *Store) DeleteAccount(ctx context.Context, userID string) error {
	defer m.lockWrite(ctx)()
	delete(m.s.accounts, userID)
	return nil
}

func (m *Store) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.s.accounts[userID]
	if !ok {
		return nil, apperr.NotFound("account not found")
	}
	return cloneAccount(acc), nil
}

func (m *Store) GetAccounts(ctx context.Context, userIDs []string) (map[string]*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*models.Account, len(userIDs))
	for _, id := range userIDs {
		if acc, ok := m.s.accounts[id]; ok {
			out[id] = cloneAccount(acc)
		}
	}
	return out, nil
}

func (m *Store) withAccount(ctx context.Context, userID string, fn func(acc *models.Account)) error {
	defer m.lockWrite(ctx)()
	acc, ok := m.s.accounts[userID]
	if !ok {
		return apperr.NotFound("account not found")
	}
	fn(acc)
	return nil
}

func (m *Store) SaveViews(ctx context.Context, acc *models.Account) error {
	c := cloneAccount(acc)
	return m.withAccount(ctx, acc.UserID, func(stored *models.Account) {
		stored.WhoView = c.WhoView
		stored.LastViewedBy = c.LastViewedBy
		stored.TotalViews = c.TotalViews
	})
}

func (m *Store) SetVIP(ctx context.Context, userID string, vip []models.VIPRecord) error {
	return m.withAccount(ctx, userID, func(stored *models.Account) {
		stored.VIP = append([]models.VIPRecord{}, vip...)
	})
}

func (m *Store) UpdateProfile(ctx context.Context, userID string, upd repository.ProfileUpdate) (*models.Account, error) {
	var out *models.Account
	err := m.withAccount(ctx, userID, func(stored *models.Account) {
		if upd.Biography != nil {
			stored.Biography = *upd.Biography
		}
		if upd.Instagram != nil {
			stored.Instagram = *upd.Instagram
		}
		if upd.Birthday != nil {
			b := *upd.Birthday
			stored.Birthday = &b
		}
		if upd.Interest != nil {
			stored.Interest = *upd.Interest
		}
		if upd.SchoolID != nil {
			id := *upd.SchoolID
			stored.SchoolID = &id
		}
		stored.UpdatedAt = time.Now()
		out = cloneAccount(stored)
	})
	return out, err
}

func (m *Store) InstagramTaken(ctx context.Context, instagram, exceptUserID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, acc := range m.s.accounts {
		if id != exceptUserID && acc.Instagram != "" && strings.EqualFold(acc.Instagram, instagram) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Store) SetAvatar(ctx context.Context, userID, url string) (string, error) {
	var previous string
	err := m.withAccount(ctx, userID, func(stored *models.Account) {
		previous = stored.Avatar
		stored.Avatar = url
	})
	return previous, err
}

func (m *Store) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	defer m.lockWrite(ctx)()
	acc, ok := m.s.accounts[userID]
	if !ok {
		return 0, apperr.NotFound("account not found")
	}
	if err := models.CheckBalance(acc.CoinBalance, delta); err != nil {
		return 0, err
	}
	acc.CoinBalance += delta
	return acc.CoinBalance, nil
}

func (m *Store) TotalCoins(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, acc := range m.s.accounts {
		total += acc.CoinBalance
	}
	return total, nil
}

// ---- ledger ----

func (m *Store) InsertTransaction(ctx context.Context, txn *models.CoinTransaction) error {
	defer m.lockWrite(ctx)()
	m.s.transactions = append(m.s.transactions, *txn)
	return nil
}

func (m *Store) ListTransactions(ctx context.Context, userID string, limit, skip int64) ([]models.CoinTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.CoinTransaction
	for i := len(m.s.transactions) - 1; i >= 0; i-- {
		if m.s.transactions[i].UserID == userID {
			out = append(out, m.s.transactions[i])
		}
	}
	return page(out, limit, skip), nil
}

// ---- friends ----

func (m *Store) HasRelation(ctx context.Context, ownerID, otherID string, kind models.RelationKind) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.s.relations[relationKey{ownerID, otherID, kind}]
	return ok, nil
}

func (m *Store) AddRelation(ctx context.Context, rel *models.FriendRelation) error {
	defer m.lockWrite(ctx)()
	key := relationKey{rel.OwnerID, rel.OtherID, rel.Kind}
	if _, ok := m.s.relations[key]; ok {
		return apperr.Conflict("relation already exists")
	}
	m.s.relations[key] = *rel
	return nil
}

func (m *Store) RemoveRelation(ctx context.Context, ownerID, otherID string, kind models.RelationKind) (bool, error) {
	defer m.lockWrite(ctx)()
	key := relationKey{ownerID, otherID, kind}
	if _, ok := m.s.relations[key]; !ok {
		return false, nil
	}
	delete(m.s.relations, key)
	return true, nil
}

func (m *Store) ListRelations(ctx context.Context, ownerID string, kind models.RelationKind) ([]models.FriendRelation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.FriendRelation{}
	for k, rel := range m.s.relations {
		if k.owner == ownerID && k.kind == kind {
			out = append(out, rel)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- posts & comments ----

func (m *Store) CreatePost(ctx context.Context, p *models.Post) error {
	defer m.lockWrite(ctx)()
	m.s.posts[p.ID] = *p
	return nil
}

func (m *Store) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.s.posts[id]
	if !ok {
		return nil, apperr.NotFound("post not found")
	}
	p.Votes = cloneVotes(p.Votes)
	return &p, nil
}

func (m *Store) ListPosts(ctx context.Context, authorID string, limit, skip int64) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Post{}
	for _, p := range m.s.posts {
		if authorID == "" || p.AuthorID == authorID {
			p.Votes = cloneVotes(p.Votes)
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, skip), nil
}

func (m *Store) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	defer m.lockWrite(ctx)()
	if _, ok := m.s.posts[id]; !ok {
		return apperr.NotFound("post not found")
	}
	delete(m.s.posts, id)
	for cid, c := range m.s.comments {
		if c.PostID == id {
			delete(m.s.comments, cid)
		}
	}
	return nil
}

func (m *Store) SetPostVotes(ctx context.Context, id primitive.ObjectID, votes models.Votes) error {
	defer m.lockWrite(ctx)()
	p, ok := m.s.posts[id]
	if !ok {
		return apperr.NotFound("post not found")
	}
	p.Votes = cloneVotes(votes)
	m.s.posts[id] = p
	return nil
}

func (m *Store) CountPosts(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.s.posts)), nil
}

func (m *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	defer m.lockWrite(ctx)()
	p, ok := m.s.posts[c.PostID]
	if !ok {
		return apperr.NotFound("post not found")
	}
	p.CommentCount++
	m.s.posts[p.ID] = p
	m.s.comments[c.ID] = *c
	return nil
}

func (m *Store) GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.s.comments[id]
	if !ok {
		return nil, apperr.NotFound("comment not found")
	}
	c.Votes = cloneVotes(c.Votes)
	return &c, nil
}

func (m *Store) ListComments(ctx context.Context, postID primitive.ObjectID, limit, skip int64) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Comment{}
	for _, c := range m.s.comments {
		if c.PostID == postID {
			c.Votes = cloneVotes(c.Votes)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, limit, skip), nil
}

func (m *Store) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	defer m.lockWrite(ctx)()
	c, ok := m.s.comments[id]
	if !ok {
		return apperr.NotFound("comment not found")
	}
	delete(m.s.comments, id)
	if p, ok := m.s.posts[c.PostID]; ok && p.CommentCount > 0 {
		p.CommentCount--
		m.s.posts[p.ID] = p
	}
	return nil
}

func (m *Store) SetCommentVotes(ctx context.Context, id primitive.ObjectID, votes models.Votes) error {
	defer m.lockWrite(ctx)()
	c, ok := m.s.comments[id]
	if !ok {
		return apperr.NotFound("comment not found")
	}
	c.Votes = cloneVotes(votes)
	m.s.comments[id] = c
	return nil
}

// ---- messages ----

func (m *Store) InsertMessage(ctx context.Context, msg *models.DirectMessage) error {
	defer m.lockWrite(ctx)()
	m.s.messages = append(m.s.messages, *msg)
	return nil
}

func (m *Store) ListConversation(ctx context.Context, a, b string, before *time.Time, limit int64) ([]models.DirectMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.DirectMessage{}
	for i := len(m.s.messages) - 1; i >= 0; i-- {
		msg := m.s.messages[i]
		if !((msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a)) {
			continue
		}
		if before != nil && !msg.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, msg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, 0), nil
}

func (m *Store) MarkConversationRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	defer m.lockWrite(ctx)()
	var n int64
	for i := range m.s.messages {
		msg := &m.s.messages[i]
		if msg.ReceiverID == receiverID && msg.SenderID == senderID && !msg.Read {
			msg.Read = true
			n++
		}
	}
	return n, nil
}

func (m *Store) CountMessages(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.s.messages)), nil
}

// ---- notifications ----

func (m *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	defer m.lockWrite(ctx)()
	m.s.notifications = append(m.s.notifications, *n)
	return nil
}

func (m *Store) ListNotifications(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Notification{}
	for i := len(m.s.notifications) - 1; i >= 0; i-- {
		if m.s.notifications[i].UserID == userID {
			out = append(out, m.s.notifications[i])
		}
	}
	return page(out, limit, 0), nil
}

func (m *Store) MarkNotificationsRead(ctx context.Context, userID string) (int64, error) {
	defer m.lockWrite(ctx)()
	var n int64
	for i := range m.s.notifications {
		if m.s.notifications[i].UserID == userID && !m.s.notifications[i].Read {
			m.s.notifications[i].Read = true
			n++
		}
	}
	return n, nil
}

// ---- clubs ----

func (m *Store) CreateClub(ctx context.Context, c *models.Club) error {
	defer m.lockWrite(ctx)()
	for _, existing := range m.s.clubs {
		if strings.EqualFold(existing.Name, c.Name) {
			return apperr.Conflict("club already exists")
		}
	}
	stored := *c
	stored.GoingToday = append([]string{}, c.GoingToday...)
	m.s.clubs[c.ID] = stored
	return nil
}

func (m *Store) GetClub(ctx context.Context, id primitive.ObjectID) (*models.Club, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.s.clubs[id]
	if !ok {
		return nil, apperr.NotFound("club not found")
	}
	c.GoingToday = append([]string{}, c.GoingToday...)
	return &c, nil
}

func (m *Store) ListClubs(ctx context.Context) ([]models.Club, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Club, 0, len(m.s.clubs))
	for _, c := range m.s.clubs {
		c.GoingToday = append([]string{}, c.GoingToday...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Store) AddGoing(ctx context.Context, id primitive.ObjectID, userID string) error {
	defer m.lockWrite(ctx)()
	c, ok := m.s.clubs[id]
	if !ok {
		return apperr.NotFound("club not found")
	}
	for _, u := range c.GoingToday {
		if u == userID {
			return nil
		}
	}
	c.GoingToday = append(append([]string{}, c.GoingToday...), userID)
	m.s.clubs[id] = c
	return nil
}

func (m *Store) RemoveGoing(ctx context.Context, id primitive.ObjectID, userID string) error {
	defer m.lockWrite(ctx)()
	c, ok := m.s.clubs[id]
	if !ok {
		return apperr.NotFound("club not found")
	}
	kept := make([]string, 0, len(c.GoingToday))
	for _, u := range c.GoingToday {
		if u != userID {
			kept = append(kept, u)
		}
	}
	c.GoingToday = kept
	m.s.clubs[id] = c
	return nil
}

func (m *Store) ResetGoing(ctx context.Context, now time.Time) (int64, error) {
	defer m.lockWrite(ctx)()
	var n int64
	for id, c := range m.s.clubs {
		c.GoingToday = []string{}
		c.ResetAt = now
		m.s.clubs[id] = c
		n++
	}
	return n, nil
}

// ---- schools ----

func (m *Store) CreateSchool(ctx context.Context, s *models.School) error {
	defer m.lockWrite(ctx)()
	for _, existing := range m.s.schools {
		if strings.EqualFold(existing.Name, s.Name) {
			return apperr.Conflict("school already exists")
		}
	}
	m.s.schools[s.ID] = *s
	return nil
}

func (m *Store) GetSchool(ctx context.Context, id primitive.ObjectID) (*models.School, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.s.schools[id]
	if !ok {
		return nil, apperr.NotFound("school not found")
	}
	return &s, nil
}

func (m *Store) ListSchools(ctx context.Context) ([]models.School, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.School, 0, len(m.s.schools))
	for _, s := range m.s.schools {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Store) IncSchoolMembers(ctx context.Context, id primitive.ObjectID, delta int64) error {
	defer m.lockWrite(ctx)()
	s, ok := m.s.schools[id]
	if !ok {
		return apperr.NotFound("school not found")
	}
	s.MemberCount += delta
	m.s.schools[id] = s
	return nil
}

// ---- invites ----

func (m *Store) CreateInvite(ctx context.Context, inv *models.Invite) error {
	defer m.lockWrite(ctx)()
	if _, ok := m.s.invites[inv.Code]; ok {
		return apperr.Conflict("invite code already exists")
	}
	stored := *inv
	stored.UsedBy = append([]string{}, inv.UsedBy...)
	m.s.invites[inv.Code] = stored
	return nil
}

func (m *Store) GetInvite(ctx context.Context, code string) (*models.Invite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.s.invites[code]
	if !ok {
		return nil, apperr.NotFound("invite not found")
	}
	inv.UsedBy = append([]string{}, inv.UsedBy...)
	return &inv, nil
}

func (m *Store) ListInvites(ctx context.Context, createdBy string) ([]models.Invite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Invite{}
	for _, inv := range m.s.invites {
		if inv.CreatedBy == createdBy {
			inv.UsedBy = append([]string{}, inv.UsedBy...)
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) RedeemInvite(ctx context.Context, code, userID string, now time.Time) (*models.Invite, error) {
	defer m.lockWrite(ctx)()
	inv, ok := m.s.invites[code]
	if !ok {
		return nil, apperr.NotFound("invite not found")
	}
	if !inv.Redeemable(now) {
		return nil, apperr.Validation("invite is expired or fully used")
	}
	inv.UsedBy = append(append([]string{}, inv.UsedBy...), userID)
	m.s.invites[code] = inv
	out := inv
	out.UsedBy = append([]string{}, inv.UsedBy...)
	return &out, nil
}
