package services

import (
	"context"
	"strings"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/AnshRaj112/clubhub-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxPostLength    = 2000
	MaxCommentLength = 500

	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type PostService struct {
	store    repository.Store
	dir      *Directory
	notifier *NotificationService
	now      func() time.Time
}

func NewPostService(store repository.Store, dir *Directory, notifier *NotificationService) *PostService {
	return &PostService{store: store, dir: dir, notifier: notifier, now: time.Now}
}

// PostView is a post as seen by one caller.
type PostView struct {
	models.Post
	Author    models.UserSummary   `json:"author"`
	Score     int                  `json:"score"`
	Upvotes   int                  `json:"upvotes"`
	Downvotes int                  `json:"downvotes"`
	MyVote    models.VoteDirection `json:"my_vote,omitempty"`
}

type CommentView struct {
	models.Comment
	Author    models.UserSummary   `json:"author"`
	Score     int                  `json:"score"`
	Upvotes   int                  `json:"upvotes"`
	Downvotes int                  `json:"downvotes"`
	MyVote    models.VoteDirection `json:"my_vote,omitempty"`
}

func (s *PostService) Create(ctx context.Context, authorID, content string) (*PostView, error) {
	content = strings.TrimSpace(content)
	if err := utils.ValidateText("content", content, 1, MaxPostLength); err != nil {
		return nil, err
	}
	if _, err := s.store.GetAccount(ctx, authorID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Post{
		ID:        primitive.NewObjectID(),
		AuthorID:  authorID,
		Content:   content,
		Votes:     models.Votes{Up: []string{}, Down: []string{}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	return s.postView(ctx, p, authorID), nil
}

// Feed lists posts newest first; authorID narrows it to one user.
func (s *PostService) Feed(ctx context.Context, viewerID, authorID string, limit, skip int64) ([]PostView, error) {
	if skip < 0 {
		skip = 0
	}
	posts, err := s.store.ListPosts(ctx, authorID, clampLimit(limit, defaultFeedLimit, maxFeedLimit), skip)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.AuthorID
	}
	authors, err := s.authors(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]PostView, 0, len(posts))
	for i := range posts {
		out = append(out, newPostView(&posts[i], authors[posts[i].AuthorID], viewerID))
	}
	return out, nil
}

func (s *PostService) Get(ctx context.Context, viewerID string, id primitive.ObjectID) (*PostView, error) {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.postView(ctx, p, viewerID), nil
}

// Delete removes a post and its comments. Only the author or an admin may
// delete.
func (s *PostService) Delete(ctx context.Context, caller *Identity, id primitive.ObjectID) error {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if p.AuthorID != caller.UserID && !caller.IsAdmin {
		return apperr.Forbidden("you can only delete your own posts")
	}
	return s.store.DeletePost(ctx, id)
}

// Vote toggles userID's vote on a post.
func (s *PostService) Vote(ctx context.Context, userID string, id primitive.ObjectID, dir models.VoteDirection) (*PostView, error) {
	if err := validateDirection(dir); err != nil {
		return nil, err
	}

	var p *models.Post
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.store.GetPost(ctx, id); err != nil {
			return err
		}
		p.Votes.Toggle(userID, dir)
		return s.store.SetPostVotes(ctx, id, p.Votes)
	})
	if err != nil {
		return nil, err
	}
	return s.postView(ctx, p, userID), nil
}

// Comment adds a comment and notifies the post author.
func (s *PostService) Comment(ctx context.Context, authorID string, postID primitive.ObjectID, content string) (*CommentView, error) {
	content = strings.TrimSpace(content)
	if err := utils.ValidateText("content", content, 1, MaxCommentLength); err != nil {
		return nil, err
	}

	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	c := &models.Comment{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		Votes:     models.Votes{Up: []string{}, Down: []string{}},
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}

	if p.AuthorID != authorID {
		s.notifier.notifyAfter(ctx, p.AuthorID, models.NotificationComment, authorID, postID.Hex())
	}
	return s.commentView(ctx, c, authorID), nil
}

// Comments lists a post's comments, oldest first.
func (s *PostService) Comments(ctx context.Context, viewerID string, postID primitive.ObjectID, limit, skip int64) ([]CommentView, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	if skip < 0 {
		skip = 0
	}
	comments, err := s.store.ListComments(ctx, postID, clampLimit(limit, defaultFeedLimit, maxFeedLimit), skip)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.AuthorID
	}
	authors, err := s.authors(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]CommentView, 0, len(comments))
	for i := range comments {
		out = append(out, newCommentView(&comments[i], authors[comments[i].AuthorID], viewerID))
	}
	return out, nil
}

func (s *PostService) DeleteComment(ctx context.Context, caller *Identity, id primitive.ObjectID) error {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != caller.UserID && !caller.IsAdmin {
		return apperr.Forbidden("you can only delete your own comments")
	}
	return s.store.DeleteComment(ctx, id)
}

func (s *PostService) VoteComment(ctx context.Context, userID string, id primitive.ObjectID, dir models.VoteDirection) (*CommentView, error) {
	if err := validateDirection(dir); err != nil {
		return nil, err
	}

	var c *models.Comment
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if c, err = s.store.GetComment(ctx, id); err != nil {
			return err
		}
		c.Votes.Toggle(userID, dir)
		return s.store.SetCommentVotes(ctx, id, c.Votes)
	})
	if err != nil {
		return nil, err
	}
	return s.commentView(ctx, c, userID), nil
}

func (s *PostService) postView(ctx context.Context, p *models.Post, viewerID string) *PostView {
	v := newPostView(p, s.dir.Summary(ctx, p.AuthorID), viewerID)
	return &v
}

func (s *PostService) commentView(ctx context.Context, c *models.Comment, viewerID string) *CommentView {
	v := newCommentView(c, s.dir.Summary(ctx, c.AuthorID), viewerID)
	return &v
}

func (s *PostService) authors(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	summaries, err := s.dir.Summaries(ctx, uniqueStrings(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.UserSummary, len(summaries))
	for _, sum := range summaries {
		out[sum.ID] = sum
	}
	return out, nil
}

func newPostView(p *models.Post, author models.UserSummary, viewerID string) PostView {
	if author.ID == "" {
		author.ID = p.AuthorID
	}
	return PostView{
		Post:      *p,
		Author:    author,
		Score:     p.Votes.Score(),
		Upvotes:   len(p.Votes.Up),
		Downvotes: len(p.Votes.Down),
		MyVote:    p.Votes.VoteOf(viewerID),
	}
}

func newCommentView(c *models.Comment, author models.UserSummary, viewerID string) CommentView {
	if author.ID == "" {
		author.ID = c.AuthorID
	}
	return CommentView{
		Comment:   *c,
		Author:    author,
		Score:     c.Votes.Score(),
		Upvotes:   len(c.Votes.Up),
		Downvotes: len(c.Votes.Down),
		MyVote:    c.Votes.VoteOf(viewerID),
	}
}

func validateDirection(dir models.VoteDirection) error {
	if dir != models.VoteUp && dir != models.VoteDown {
		return apperr.Validation("direction must be up or down")
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
