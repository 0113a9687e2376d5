package pawapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"pawdentify/internal/domain/profile"
	"pawdentify/internal/platform/httpclient"
)

type userDTO struct {
	ID             string              `json:"id"`
	MongoID        string              `json:"_id"`
	ClerkUserID    string              `json:"clerk_user_id"`
	Email          string              `json:"email"`
	Username       string              `json:"username"`
	ProfileData    profile.ProfileData `json:"profile_data"`
	FavoriteBreeds []string            `json:"favorite_breeds"`
	CreatedAt      flexTime            `json:"created_at"`
	LastLogin      flexTime            `json:"last_login"`
}

func (d userDTO) toUser() profile.User {
	id := d.ClerkUserID
	if id == "" {
		id = d.ID
	}
	if id == "" {
		id = d.MongoID
	}
	favs := d.FavoriteBreeds
	if favs == nil {
		favs = []string{}
	}
	return profile.User{
		ID:             id,
		ClerkUserID:    d.ClerkUserID,
		Email:          d.Email,
		Username:       d.Username,
		ProfileData:    d.ProfileData,
		FavoriteBreeds: favs,
		CreatedAt:      d.CreatedAt.Time,
		LastLogin:      d.LastLogin.Time,
	}
}

func decodeUser(raw json.RawMessage) (profile.User, error) {
	var d userDTO
	if err := json.Unmarshal(unwrap(raw, "user"), &d); err != nil {
		return profile.User{}, fmt.Errorf("pawapi: decode user: %w", err)
	}
	return d.toUser(), nil
}

func (c *Client) GetUser(ctx context.Context, userID string) (profile.User, bool, error) {
	raw, err := c.get(ctx, userPath("/api/users/%s", userID), "", nil)
	if err != nil {
		// 404 acá es "usuario no existe", no "endpoint ausente"
		if httpclient.StatusCode(err) == http.StatusNotFound {
			return profile.User{}, false, nil
		}
		return profile.User{}, false, fmt.Errorf("pawapi get user: %w", err)
	}
	u, err := decodeUser(raw)
	if err != nil {
		return profile.User{}, false, err
	}
	if strings.TrimSpace(u.ID) == "" {
		u.ID = userID
	}
	return u, true, nil
}

func (c *Client) CreateUser(ctx context.Context, u profile.User) (profile.User, error) {
	body := map[string]any{
		"clerk_user_id": u.ClerkUserID,
		"email":         u.Email,
		"username":      u.Username,
		"profile_data":  u.ProfileData,
	}
	raw, err := c.do(ctx, call{method: http.MethodPost, path: "/api/users", body: body})
	if err != nil {
		return profile.User{}, fmt.Errorf("pawapi create user: %w", err)
	}
	if len(raw) == 0 {
		return u, nil
	}
	created, err := decodeUser(raw)
	if err != nil {
		return profile.User{}, err
	}
	// el servidor suele responder sólo con un mensaje: completar con lo enviado
	if created.ClerkUserID == "" && created.Email == "" {
		return u, nil
	}
	if created.ID == "" {
		created.ID = u.ID
	}
	return created, nil
}

func (c *Client) UpdateUser(ctx context.Context, userID string, up profile.UserUpdate) error {
	body := make(map[string]any)
	if up.Email != nil {
		body["email"] = *up.Email
	}
	if up.Username != nil {
		body["username"] = *up.Username
	}
	if up.ProfileData != nil {
		body["profile_data.first_name"] = up.ProfileData.FirstName
		body["profile_data.last_name"] = up.ProfileData.LastName
		body["profile_data.avatar_url"] = up.ProfileData.AvatarURL
	}
	if up.LastLogin != nil {
		body["last_login"] = *up.LastLogin
	}
	_, err := c.do(ctx, call{method: http.MethodPut, path: userPath("/api/users/%s", userID), body: body})
	if err != nil {
		return fmt.Errorf("pawapi update user: %w", err)
	}
	return nil
}

func (c *Client) GetPreferences(ctx context.Context, userID string) (profile.Preferences, bool, error) {
	raw, err := c.get(ctx, "/api/preferences", userID, nil)
	if err != nil {
		if httpclient.StatusCode(err) == http.StatusNotFound {
			return profile.Preferences{}, false, nil
		}
		return profile.Preferences{}, false, fmt.Errorf("pawapi get preferences: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return profile.Preferences{}, false, nil
	}
	var p profile.Preferences
	if err := json.Unmarshal(unwrap(raw, "preferences"), &p); err != nil {
		return profile.Preferences{}, false, fmt.Errorf("pawapi: decode preferences: %w", err)
	}
	return p, true, nil
}

func (c *Client) UpdatePreferences(ctx context.Context, userID string, p profile.Preferences) (profile.Preferences, error) {
	raw, err := c.do(ctx, call{method: http.MethodPut, path: "/api/preferences", userID: userID, body: p})
	if err != nil {
		return profile.Preferences{}, fmt.Errorf("pawapi update preferences: %w", err)
	}
	inner := unwrap(raw, "preferences")
	var out profile.Preferences
	if len(inner) > 0 && json.Unmarshal(inner, &out) == nil && out.Theme != "" {
		return out, nil
	}
	return p, nil
}

func (c *Client) AddFavorite(ctx context.Context, userID, breed string) (profile.FavoriteBreed, error) {
	raw, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   userPath("/api/users/%s/favorites", userID),
		body:   map[string]string{"breed_name": breed},
	})
	if err != nil {
		return profile.FavoriteBreed{}, fmt.Errorf("pawapi add favorite: %w", err)
	}
	fav := profile.FavoriteBreed{Breed: breed, Timestamp: c.now()}
	if id := serverID(unwrap(raw, "favorite")); id != "" {
		fav.ID = id
	} else {
		fav.ID = profile.FavoriteID(breed)
	}
	return fav, nil
}

func (c *Client) RemoveFavorite(ctx context.Context, userID, breed string) error {
	_, err := c.do(ctx, call{
		method: http.MethodDelete,
		path:   userPath("/api/users/%s/favorites", userID),
		body:   map[string]string{"breed_name": breed},
	})
	if err != nil {
		return fmt.Errorf("pawapi remove favorite: %w", err)
	}
	return nil
}
