package gateway

import (
	"context"

	"pawdentify/internal/domain/profile"
)

// GetPreferences nunca falla por ausencia: sin preferencias guardadas devuelve los defaults.
func (g *Gateway) GetPreferences(ctx context.Context, userID string) (profile.Preferences, error) {
	return read(ctx, g, "get preferences",
		func(ctx context.Context) (profile.Preferences, error) {
			p, found, err := g.remote.GetPreferences(ctx, userID)
			if err != nil {
				return profile.Preferences{}, err
			}
			if !found {
				return g.LocalPreferences(ctx, userID)
			}
			if p, err = p.Normalize(); err != nil {
				// el servidor guardó algo que no entendemos: se usan los defaults
				p = profile.DefaultPreferences()
			}
			g.mirror("get preferences", g.SaveLocalPreferences(ctx, userID, p))
			return p, nil
		},
		func(ctx context.Context) (profile.Preferences, error) {
			return g.LocalPreferences(ctx, userID)
		},
	)
}

func (g *Gateway) UpdatePreferences(ctx context.Context, userID string, p profile.Preferences) (Write[profile.Preferences], error) {
	p, err := p.Normalize()
	if err != nil {
		return Write[profile.Preferences]{}, invalid("update preferences", err)
	}
	return write(ctx, g, "update preferences",
		func(ctx context.Context) (profile.Preferences, error) {
			saved, err := g.remote.UpdatePreferences(ctx, userID, p)
			if err != nil {
				return profile.Preferences{}, err
			}
			g.mirror("update preferences", g.SaveLocalPreferences(ctx, userID, saved))
			return saved, nil
		},
		func(ctx context.Context) (profile.Preferences, error) {
			return p, g.SaveLocalPreferences(ctx, userID, p)
		},
	)
}

// LocalPreferences combina las preferencias guardadas con el tema, que se persiste aparte.
func (g *Gateway) LocalPreferences(ctx context.Context, userID string) (profile.Preferences, error) {
	p, err := g.local.Preferences(ctx, userID)
	if err != nil {
		return profile.Preferences{}, err
	}
	theme, err := g.local.Theme(ctx, userID)
	if err != nil {
		return profile.Preferences{}, err
	}
	if theme.Valid() {
		p.Theme = theme
	}
	return p.Normalize()
}

func (g *Gateway) SaveLocalPreferences(ctx context.Context, userID string, p profile.Preferences) error {
	if err := g.local.SavePreferences(ctx, userID, p); err != nil {
		return err
	}
	return g.local.SaveTheme(ctx, userID, p.Theme)
}
