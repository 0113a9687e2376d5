package localstore

import (
	"context"

	"pawdentify/internal/domain/feedback"
	"pawdentify/internal/domain/pets"
	"pawdentify/internal/domain/profile"
	"pawdentify/internal/domain/scans"
)

func (s *Store) History(ctx context.Context, userID string) ([]scans.ScanRecord, error) {
	return Load(ctx, s, userID, KeyHistory, []scans.ScanRecord{})
}

func (s *Store) SaveHistory(ctx context.Context, userID string, list []scans.ScanRecord) error {
	return Save(ctx, s, userID, KeyHistory, nonNil(list))
}

func (s *Store) Saved(ctx context.Context, userID string) ([]profile.FavoriteBreed, error) {
	return Load(ctx, s, userID, KeySaved, []profile.FavoriteBreed{})
}

func (s *Store) SaveSaved(ctx context.Context, userID string, list []profile.FavoriteBreed) error {
	return Save(ctx, s, userID, KeySaved, nonNil(list))
}

func (s *Store) Theme(ctx context.Context, userID string) (profile.Theme, error) {
	return Load(ctx, s, userID, KeyTheme, profile.ThemeLight)
}

func (s *Store) SaveTheme(ctx context.Context, userID string, t profile.Theme) error {
	return Save(ctx, s, userID, KeyTheme, t)
}

func (s *Store) RecentSearches(ctx context.Context, userID string) ([]string, error) {
	return Load(ctx, s, userID, KeyRecentSearches, []string{})
}

func (s *Store) SaveRecentSearches(ctx context.Context, userID string, terms []string) error {
	return Save(ctx, s, userID, KeyRecentSearches, nonNil(terms))
}

func (s *Store) Preferences(ctx context.Context, userID string) (profile.Preferences, error) {
	return Load(ctx, s, userID, KeyPreferences, profile.DefaultPreferences())
}

func (s *Store) SavePreferences(ctx context.Context, userID string, p profile.Preferences) error {
	return Save(ctx, s, userID, KeyPreferences, p)
}

// Profile devuelve found=false si nunca se guardó un perfil local.
func (s *Store) Profile(ctx context.Context, userID string) (profile.User, bool, error) {
	u, err := Load[*profile.User](ctx, s, userID, KeyProfile, nil)
	if err != nil || u == nil {
		return profile.User{}, false, err
	}
	return *u, true, nil
}

func (s *Store) SaveProfile(ctx context.Context, userID string, u profile.User) error {
	return Save(ctx, s, userID, KeyProfile, &u)
}

func (s *Store) Pets(ctx context.Context, userID string) ([]pets.Pet, error) {
	return Load(ctx, s, userID, KeyPets, []pets.Pet{})
}

func (s *Store) SavePets(ctx context.Context, userID string, list []pets.Pet) error {
	return Save(ctx, s, userID, KeyPets, nonNil(list))
}

func (s *Store) Vaccinations(ctx context.Context, userID string) ([]pets.Vaccination, error) {
	return Load(ctx, s, userID, KeyVaccinations, []pets.Vaccination{})
}

func (s *Store) SaveVaccinations(ctx context.Context, userID string, list []pets.Vaccination) error {
	return Save(ctx, s, userID, KeyVaccinations, nonNil(list))
}

func (s *Store) FeedbackQueue(ctx context.Context, userID string) ([]feedback.Feedback, error) {
	return Load(ctx, s, userID, KeyFeedbackQueue, []feedback.Feedback{})
}

func (s *Store) SaveFeedbackQueue(ctx context.Context, userID string, list []feedback.Feedback) error {
	return Save(ctx, s, userID, KeyFeedbackQueue, nonNil(list))
}

func (s *Store) CommunityQueue(ctx context.Context, userID string) ([]feedback.CommunityFeedback, error) {
	return Load(ctx, s, userID, KeyCommunityQueue, []feedback.CommunityFeedback{})
}

func (s *Store) SaveCommunityQueue(ctx context.Context, userID string, list []feedback.CommunityFeedback) error {
	return Save(ctx, s, userID, KeyCommunityQueue, nonNil(list))
}

// nonNil hace que una lista vacía se persista como [] y no como null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
