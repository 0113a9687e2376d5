package gateway

import (
	"context"
	"strings"
	"time"

	"pawdentify/internal/analytics"
	"pawdentify/internal/domain/profile"
	"pawdentify/internal/merge"
)

// GetFavorites toma los nombres del perfil remoto y conserva los timestamps locales
// de las razas que ya se conocían.
func (g *Gateway) GetFavorites(ctx context.Context, userID string) ([]profile.FavoriteBreed, error) {
	return read(ctx, g, "get favorites",
		func(ctx context.Context) ([]profile.FavoriteBreed, error) {
			u, found, err := g.remote.GetUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			local, err := g.local.Saved(ctx, userID)
			if err != nil {
				return nil, err
			}
			if !found {
				return local, nil
			}
			out := mergeFavorites(u.FavoriteBreeds, local, g.now())
			g.mirror("get favorites", g.local.SaveSaved(ctx, userID, out))
			return out, nil
		},
		func(ctx context.Context) ([]profile.FavoriteBreed, error) {
			return g.local.Saved(ctx, userID)
		},
	)
}

// mergeFavorites arma la lista según el servidor. Las entradas localOnly que el servidor
// todavía no conoce se conservan al inicio.
func mergeFavorites(names []string, local []profile.FavoriteBreed, now time.Time) []profile.FavoriteBreed {
	out := make([]profile.FavoriteBreed, 0, len(names)+len(local))
	for _, f := range local {
		if f.LocalOnly && !containsFold(names, f.Breed) {
			out = append(out, f)
		}
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || profile.HasBreed(out, name) {
			continue
		}
		fav := profile.FavoriteBreed{ID: profile.FavoriteID(name), Breed: name, Timestamp: now}
		for _, f := range local {
			if strings.EqualFold(strings.TrimSpace(f.Breed), name) {
				fav = f.WithRecordID(f.ID)
				break
			}
		}
		out = append(out, fav)
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, it := range list {
		if strings.EqualFold(strings.TrimSpace(it), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

// AddFavorite agrega una raza. Si ya estaba guardada no se duplica: se conserva la entrada existente.
func (g *Gateway) AddFavorite(ctx context.Context, userID, breed string) (Write[profile.FavoriteBreed], error) {
	breed = strings.TrimSpace(breed)
	if breed == "" {
		return Write[profile.FavoriteBreed]{}, invalid("add favorite", profile.ErrInvalidInput)
	}
	return write(ctx, g, "add favorite",
		func(ctx context.Context) (profile.FavoriteBreed, error) {
			fav, err := g.remote.AddFavorite(ctx, userID, breed)
			if err != nil {
				return profile.FavoriteBreed{}, err
			}
			saved, err := g.saveFavoriteLocal(ctx, userID, fav)
			if err != nil {
				g.mirror("add favorite", err)
				return fav, nil
			}
			return saved, nil
		},
		func(ctx context.Context) (profile.FavoriteBreed, error) {
			fav := profile.FavoriteBreed{ID: profile.FavoriteID(breed), Breed: breed, Timestamp: g.now()}
			return g.saveFavoriteLocal(ctx, userID, fav.AsLocalOnly())
		},
	)
}

func (g *Gateway) saveFavoriteLocal(ctx context.Context, userID string, fav profile.FavoriteBreed) (profile.FavoriteBreed, error) {
	list, err := g.local.Saved(ctx, userID)
	if err != nil {
		return profile.FavoriteBreed{}, err
	}
	for i, f := range list {
		if !strings.EqualFold(strings.TrimSpace(f.Breed), fav.Breed) {
			continue
		}
		if !fav.LocalOnly {
			f = f.WithRecordID(fav.ID)
		}
		list[i] = f
		return f, g.local.SaveSaved(ctx, userID, list)
	}
	list = merge.Insert(list, fav, 0)
	return fav, g.local.SaveSaved(ctx, userID, list)
}

// RemoveFavorite devuelve la lista resultante.
func (g *Gateway) RemoveFavorite(ctx context.Context, userID, breed string) (Write[[]profile.FavoriteBreed], error) {
	breed = strings.TrimSpace(breed)
	if breed == "" {
		return Write[[]profile.FavoriteBreed]{}, invalid("remove favorite", profile.ErrInvalidInput)
	}
	removeLocal := func(ctx context.Context) ([]profile.FavoriteBreed, error) {
		list, err := g.local.Saved(ctx, userID)
		if err != nil {
			return nil, err
		}
		list = profile.WithoutBreed(list, breed)
		return list, g.local.SaveSaved(ctx, userID, list)
	}
	return write(ctx, g, "remove favorite",
		func(ctx context.Context) ([]profile.FavoriteBreed, error) {
			if err := g.remote.RemoveFavorite(ctx, userID, breed); err != nil {
				return nil, err
			}
			list, err := removeLocal(ctx)
			if err != nil {
				g.mirror("remove favorite", err)
				return []profile.FavoriteBreed{}, nil
			}
			return list, nil
		},
		removeLocal,
	)
}

// GetDashboardStats combina estadísticas de escaneo con las razas favoritas.
func (g *Gateway) GetDashboardStats(ctx context.Context, userID string) (analytics.DashboardStats, error) {
	return read(ctx, g, "dashboard stats",
		func(ctx context.Context) (analytics.DashboardStats, error) {
			st, err := g.remote.ScanStats(ctx, userID)
			if err != nil {
				return analytics.DashboardStats{}, err
			}
			favs, err := g.GetFavorites(ctx, userID)
			if err != nil {
				return analytics.DashboardStats{}, err
			}
			recent := st.RecentScans
			if len(recent) > analytics.RecentScans {
				recent = recent[:analytics.RecentScans]
			}
			return analytics.DashboardStats{
				TotalScans:     st.TotalScans,
				ThisMonth:      st.ThisMonth,
				AccuracyRate:   st.AverageConfidence,
				FavoriteBreeds: profile.BreedNames(favs),
				UniqueBreeds:   st.UniqueBreeds,
				RecentScans:    recent,
			}, nil
		},
		func(ctx context.Context) (analytics.DashboardStats, error) {
			list, err := g.local.History(ctx, userID)
			if err != nil {
				return analytics.DashboardStats{}, err
			}
			favs, err := g.local.Saved(ctx, userID)
			if err != nil {
				return analytics.DashboardStats{}, err
			}
			return g.engine.DashboardStats(list, profile.BreedNames(favs)), nil
		},
	)
}
