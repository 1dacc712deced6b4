package services

import (
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

// Options carries everything the services need from configuration and
// the storage layer. Redis and Files may be nil.
type Options struct {
	Store repository.Store
	Users repository.UserRepository
	Redis *redis.Client
	Files FileStorage

	JWTSecret   string
	JWTTTL      time.Duration
	MessageCost int64
	VIPPrice    int64
	VIPDuration time.Duration
	InviteBonus int64
}

// Container holds one instance of every service, wired together.
type Container struct {
	Hub           *Hub
	Cache         Cache
	Tokens        *TokenService
	Directory     *Directory
	Notifications *NotificationService
	Ledger        *LedgerService
	VIP           *VIPService
	Friends       *FriendService
	Profiles      *ProfileService
	Messages      *MessageService
	Posts         *PostService
	Clubs         *ClubService
	Invites       *InviteService
	Schools       *SchoolService
	Admin         *AdminService
	Auth          *AuthService
}

func NewContainer(opts Options) *Container {
	c := &Container{
		Hub:   NewHub(opts.Redis),
		Cache: NewCache(opts.Redis),
	}
	c.Tokens = NewTokenService(opts.JWTSecret, opts.JWTTTL, NewDenylist(opts.Redis))
	c.Directory = NewDirectory(opts.Users, opts.Store)
	c.Notifications = NewNotificationService(opts.Store, c.Hub)
	c.Ledger = NewLedgerService(opts.Store)
	c.VIP = NewVIPService(opts.Store, c.Ledger, c.Cache, opts.VIPPrice, opts.VIPDuration)
	c.Friends = NewFriendService(opts.Store, c.Directory, c.Notifications)
	c.Profiles = NewProfileService(opts.Store, opts.Users, c.Friends, c.VIP, c.Directory, opts.Files)
	c.Messages = NewMessageService(opts.Store, opts.Users, c.Ledger, c.Notifications, NewRecentMessages(opts.Redis), opts.MessageCost)
	c.Posts = NewPostService(opts.Store, c.Directory, c.Notifications)
	c.Clubs = NewClubService(opts.Store, c.Directory, c.VIP)
	c.Invites = NewInviteService(opts.Store, c.Ledger, opts.InviteBonus)
	c.Schools = NewSchoolService(opts.Store)
	c.Admin = NewAdminService(opts.Store, opts.Users, c.Ledger)
	c.Auth = NewAuthService(opts.Store, opts.Users, c.Tokens, c.Invites)
	return c
}
