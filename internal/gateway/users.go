package gateway

import (
	"context"
	"strings"

	"pawdentify/internal/domain/profile"
)

// GetUser devuelve found=false si el usuario no existe en ninguno de los dos lados.
func (g *Gateway) GetUser(ctx context.Context, userID string) (profile.User, bool, error) {
	type result struct {
		user  profile.User
		found bool
	}
	res, err := read(ctx, g, "get user",
		func(ctx context.Context) (result, error) {
			u, found, err := g.remote.GetUser(ctx, userID)
			if err != nil || !found {
				return result{}, err
			}
			g.mirror("get user", g.local.SaveProfile(ctx, userID, u))
			return result{user: u, found: true}, nil
		},
		func(ctx context.Context) (result, error) {
			u, found, err := g.local.Profile(ctx, userID)
			return result{user: u, found: found}, err
		},
	)
	return res.user, res.found, err
}

func (g *Gateway) CreateUser(ctx context.Context, u profile.User) (Write[profile.User], error) {
	if strings.TrimSpace(u.ID) == "" {
		return Write[profile.User]{}, invalid("create user", profile.ErrInvalidInput)
	}
	return write(ctx, g, "create user",
		func(ctx context.Context) (profile.User, error) {
			created, err := g.remote.CreateUser(ctx, u)
			if err != nil {
				return profile.User{}, err
			}
			g.mirror("create user", g.local.SaveProfile(ctx, u.ID, created))
			return created, nil
		},
		func(ctx context.Context) (profile.User, error) {
			return u, g.local.SaveProfile(ctx, u.ID, u)
		},
	)
}

func (g *Gateway) UpdateUser(ctx context.Context, userID string, up profile.UserUpdate) (Write[profile.User], error) {
	if strings.TrimSpace(userID) == "" {
		return Write[profile.User]{}, invalid("update user", profile.ErrInvalidInput)
	}
	applyLocal := func(ctx context.Context) (profile.User, error) {
		u, found, err := g.local.Profile(ctx, userID)
		if err != nil {
			return profile.User{}, err
		}
		if !found {
			u = profile.User{ID: userID, ClerkUserID: userID}
		}
		u = u.Apply(up)
		return u, g.local.SaveProfile(ctx, userID, u)
	}
	return write(ctx, g, "update user",
		func(ctx context.Context) (profile.User, error) {
			if err := g.remote.UpdateUser(ctx, userID, up); err != nil {
				return profile.User{}, err
			}
			u, err := applyLocal(ctx)
			g.mirror("update user", err)
			return u, nil
		},
		applyLocal,
	)
}

// SyncUser es el alta/actualización al iniciar sesión: si el usuario no existe se crea,
// si existe se actualiza last_login.
func (g *Gateway) SyncUser(ctx context.Context, id profile.Identity) (Write[profile.User], error) {
	if strings.TrimSpace(id.UserID) == "" {
		return Write[profile.User]{}, invalid("sync user", profile.ErrInvalidInput)
	}
	now := g.now()
	return write(ctx, g, "sync user",
		func(ctx context.Context) (profile.User, error) {
			u, found, err := g.remote.GetUser(ctx, id.UserID)
			if err != nil {
				return profile.User{}, err
			}
			if !found {
				u, err = g.remote.CreateUser(ctx, profile.NewUser(id, now))
				if err != nil {
					return profile.User{}, err
				}
			} else {
				up := profile.UserUpdate{LastLogin: &now}
				if err := g.remote.UpdateUser(ctx, id.UserID, up); err != nil {
					return profile.User{}, err
				}
				u = u.Apply(up)
			}
			g.mirror("sync user", g.local.SaveProfile(ctx, id.UserID, u))
			return u, nil
		},
		func(ctx context.Context) (profile.User, error) {
			u, found, err := g.local.Profile(ctx, id.UserID)
			if err != nil {
				return profile.User{}, err
			}
			if !found {
				u = profile.NewUser(id, now)
			} else {
				u = u.Apply(profile.UserUpdate{LastLogin: &now})
			}
			return u, g.local.SaveProfile(ctx, id.UserID, u)
		},
	)
}
