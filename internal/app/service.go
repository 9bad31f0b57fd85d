package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jbeauty/content/internal/cms"
	"jbeauty/content/internal/config"
	"jbeauty/content/internal/fetch"
	"jbeauty/content/internal/groq"
	"jbeauty/content/internal/image"
	"jbeauty/content/internal/notice"
	"jbeauty/content/internal/view"
)

// Executor runs one content query. *cms.Client is the production
// implementation; tests substitute their own.
type Executor interface {
	Execute(ctx context.Context, q groq.Query) (cms.Result, error)
}

// BrandList is the loaded payload of the brand listing.
type BrandList struct {
	Brands []view.BrandView
	Report view.Report
}

// NewsList is the loaded payload of the news listing.
type NewsList struct {
	Items  []view.NewsView
	Report view.Report
}

// Service wires the content pipeline: it owns one fetch controller per
// query identity and runs transport plus normalization inside each fetch.
type Service struct {
	cfg        config.Config
	client     Executor
	normalizer *view.Normalizer
	notices    *notice.Service

	brands  *fetch.Controller[BrandList]
	news    *fetch.Controller[NewsList]
	profile *fetch.Controller[view.ProfileView]

	mu          sync.Mutex
	newsDetails map[string]*fetch.Controller[view.NewsDetailView]
}

// New creates the service. store backs the notice suppression decisions.
func New(cfg config.Config, client Executor, store notice.Store) *Service {
	images := image.NewResolver(cfg.ImageCDNURL, cfg.CMSProjectID, cfg.CMSDataset)

	s := &Service{
		cfg:         cfg,
		client:      client,
		normalizer:  view.NewNormalizer(images),
		notices:     notice.NewService(store),
		newsDetails: map[string]*fetch.Controller[view.NewsDetailView]{},
	}

	s.brands = fetch.New("brand", func(ctx context.Context, q groq.Query) (BrandList, error) {
		result, err := s.client.Execute(ctx, q)
		if err != nil {
			return BrandList{}, err
		}
		brands, report := s.normalizer.Brands(result.List)
		return BrandList{Brands: brands, Report: report}, nil
	})

	s.news = fetch.New("news", func(ctx context.Context, q groq.Query) (NewsList, error) {
		result, err := s.client.Execute(ctx, q)
		if err != nil {
			return NewsList{}, err
		}
		items, report := s.normalizer.News(result.List)
		return NewsList{Items: items, Report: report}, nil
	})

	s.profile = fetch.New("profile", func(ctx context.Context, q groq.Query) (view.ProfileView, error) {
		result, err := s.client.Execute(ctx, q)
		if err != nil {
			return view.ProfileView{}, err
		}
		return s.normalizer.Profile(result.Record)
	})

	return s
}

// bindOrRefetch resolves one snapshot: a refresh forces a new fetch of the
// bound query, anything else reuses terminal state.
func bindOrRefetch[T any](ctx context.Context, c *fetch.Controller[T], q groq.Query, refresh bool) fetch.Snapshot[T] {
	if refresh {
		if snap := c.Refetch(ctx); snap.State != fetch.StateIdle {
			return snap
		}
	}
	return c.Bind(ctx, q)
}

// Brands returns the brand listing snapshot, fetching on first use.
func (s *Service) Brands(ctx context.Context, refresh bool) fetch.Snapshot[BrandList] {
	return bindOrRefetch(ctx, s.brands, groq.BrandList(), refresh)
}

// News returns the news listing snapshot, fetching on first use.
func (s *Service) News(ctx context.Context, refresh bool) fetch.Snapshot[NewsList] {
	return bindOrRefetch(ctx, s.news, groq.NewsList(), refresh)
}

// NewsDetail returns the snapshot for one news record. Controllers are held
// per canonical query key, so repeated requests for the same id share state
// while different ids stay independent.
func (s *Service) NewsDetail(ctx context.Context, id string, refresh bool) fetch.Snapshot[view.NewsDetailView] {
	q := groq.NewsByID(id)

	s.mu.Lock()
	controller, ok := s.newsDetails[q.Key()]
	if !ok {
		controller = fetch.New("news_detail", func(ctx context.Context, q groq.Query) (view.NewsDetailView, error) {
			result, err := s.client.Execute(ctx, q)
			if err != nil {
				return view.NewsDetailView{}, err
			}
			return s.normalizer.NewsDetail(result.Record)
		})
		s.newsDetails[q.Key()] = controller
	}
	s.mu.Unlock()

	return bindOrRefetch(ctx, controller, q, refresh)
}

// Profile returns the company profile snapshot, fetching on first use.
func (s *Service) Profile(ctx context.Context, refresh bool) fetch.Snapshot[view.ProfileView] {
	return bindOrRefetch(ctx, s.profile, groq.Profile(), refresh)
}

// Notice returns the banner payload and whether it should display now.
func (s *Service) Notice(ctx context.Context, now time.Time) (notice.Notice, bool) {
	payload := notice.Notice{
		Version:   s.cfg.NoticeVersion,
		DetailURL: s.cfg.NoticeDetailURL,
	}
	return payload, s.notices.ShouldShow(ctx, s.cfg.NoticeVersion, now)
}

// SuppressNotice hides the current notice version until local end of day.
func (s *Service) SuppressNotice(ctx context.Context, now time.Time) {
	s.notices.SuppressUntilEndOfDay(ctx, s.cfg.NoticeVersion, now)
}

// Ping checks content service reachability with a minimal query.
func (s *Service) Ping(ctx context.Context) error {
	if _, err := s.client.Execute(ctx, groq.Profile()); err != nil {
		return fmt.Errorf("content service: %w", err)
	}
	return nil
}
