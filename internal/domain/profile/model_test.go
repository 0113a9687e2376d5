package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser_DerivesUsername(t *testing.T) {
	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	u := NewUser(Identity{UserID: "user_1", FirstName: "Ada", LastName: "Lovelace"}, now)

	assert.Equal(t, "ada_lovelace", u.Username)
	assert.Equal(t, "user_1", u.ClerkUserID)
	assert.Equal(t, now, u.LastLogin)
}

func TestPreferencesNormalize(t *testing.T) {
	p, err := Preferences{Theme: ThemeDark}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, p.Theme)
	assert.Equal(t, "en", p.PreferredLanguage)
	assert.NotNil(t, p.Notifications)

	_, err = Preferences{Theme: "neon"}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFavoritesByName(t *testing.T) {
	list := []FavoriteBreed{{ID: "1", Breed: "Beagle"}, {ID: "2", Breed: "Pug"}, {ID: "3", Breed: "beagle"}}

	assert.True(t, HasBreed(list, "BEAGLE"))
	rest := WithoutBreed(list, "Beagle")
	assert.Equal(t, []string{"Pug"}, BreedNames(rest))
}
