package app

import (
	"context"
	"fmt"
	"time"

	"heritage_hunter/internal/domain"
)

const listedPubsKey = "pubs:listed"

func postsKey(userID int64) string { return fmt.Sprintf("posts:%d", userID) }

type DatasetService struct {
	repo     domain.PubRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewDatasetService(r domain.PubRepository, c domain.Cache, ttl time.Duration) *DatasetService {
	return &DatasetService{repo: r, cache: c, cacheTTL: ttl}
}

// GetDataset returns the listed pubs paired with the user's own posts.
// Listed pubs are cached once for everyone; posts are cached per user.
func (s *DatasetService) GetDataset(ctx context.Context, userID int64) (domain.Dataset, error) {
	pubs, err := s.listedPubs(ctx)
	if err != nil {
		return domain.Dataset{}, err
	}
	posts, err := s.userPosts(ctx, userID)
	if err != nil {
		return domain.Dataset{}, err
	}

	byPub := make(map[int64][]domain.PostView, len(posts))
	for _, p := range posts {
		byPub[p.PubID] = append(byPub[p.PubID], domain.NewPostView(p))
	}

	out := domain.Dataset{UserID: userID, Pubs: make([]domain.PubEntry, 0, len(pubs))}
	for _, p := range pubs {
		ps := byPub[p.ID]
		if ps == nil {
			ps = []domain.PostView{}
		}
		out.Pubs = append(out.Pubs, domain.PubEntry{Pub: p, Posts: ps})
	}
	return out, nil
}

func (s *DatasetService) listedPubs(ctx context.Context) ([]domain.PubView, error) {
	var out []domain.PubView
	if ok, _ := s.cache.Get(ctx, listedPubsKey, &out); ok {
		return out, nil
	}
	pubs, err := s.repo.ListListedPubs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pubs: %w", err)
	}
	out = make([]domain.PubView, 0, len(pubs))
	for _, p := range pubs {
		out = append(out, domain.NewPubView(p))
	}
	_ = s.cache.Set(ctx, listedPubsKey, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *DatasetService) userPosts(ctx context.Context, userID int64) ([]domain.Post, error) {
	key := postsKey(userID)
	var out []domain.Post
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	posts, err := s.repo.ListPostsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	_ = s.cache.Set(ctx, key, posts, int(s.cacheTTL.Seconds()))
	return posts, nil
}

// Invalidate drops the shared pub list and, when userID > 0, that user's posts.
func (s *DatasetService) Invalidate(ctx context.Context, userID int64) {
	keys := []string{listedPubsKey}
	if userID > 0 {
		keys = append(keys, postsKey(userID))
	}
	_ = s.cache.Del(ctx, keys...)
}
