package cache

import (
	"context"
	"strconv"

	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	basecache "github.com/riskibarqy/pyramid-league/internal/platform/cache"
)

const seasonKeyPrefix = "season:"

// SeasonRepository caches season reads. Every write drops all cached season keys
// because activation changes the status of more than one row.
type SeasonRepository struct {
	next  season.Repository
	cache *basecache.Store
}

func NewSeasonRepository(next season.Repository, cache *basecache.Store) *SeasonRepository {
	return &SeasonRepository{next: next, cache: cache}
}

func (r *SeasonRepository) List(ctx context.Context) ([]season.Season, error) {
	items, err := basecache.Load(ctx, r.cache, seasonKeyPrefix+"list", func(ctx context.Context) ([]season.Season, error) {
		items, err := r.next.List(ctx)
		return append([]season.Season(nil), items...), err
	})
	if err != nil {
		return nil, err
	}
	return append([]season.Season(nil), items...), nil
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID int64) (season.Season, bool, error) {
	key := seasonKeyPrefix + "id:" + strconv.FormatInt(seasonID, 10)
	return r.getOne(ctx, key, func(ctx context.Context) (season.Season, bool, error) {
		return r.next.GetByID(ctx, seasonID)
	})
}

func (r *SeasonRepository) GetActive(ctx context.Context) (season.Season, bool, error) {
	return r.getOne(ctx, seasonKeyPrefix+"active", r.next.GetActive)
}

func (r *SeasonRepository) getOne(ctx context.Context, key string, load func(context.Context) (season.Season, bool, error)) (season.Season, bool, error) {
	got, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) (basecache.Lookup[season.Season], error) {
		item, exists, err := load(ctx)
		return basecache.Lookup[season.Season]{Value: item, Found: exists}, err
	})
	if err != nil {
		return season.Season{}, false, err
	}
	return got.Value, got.Found, nil
}

func (r *SeasonRepository) Create(ctx context.Context, s season.Season) (season.Season, error) {
	defer r.cache.DeletePrefix(ctx, seasonKeyPrefix)
	return r.next.Create(ctx, s)
}

func (r *SeasonRepository) Activate(ctx context.Context, seasonID int64) error {
	defer r.cache.DeletePrefix(ctx, seasonKeyPrefix)
	return r.next.Activate(ctx, seasonID)
}

func (r *SeasonRepository) UpdateStatus(ctx context.Context, seasonID int64, status season.Status) error {
	defer r.cache.DeletePrefix(ctx, seasonKeyPrefix)
	return r.next.UpdateStatus(ctx, seasonID, status)
}
