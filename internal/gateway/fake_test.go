package gateway

import (
	"context"
	"sync"

	"pawdentify/internal/domain/feedback"
	"pawdentify/internal/domain/profile"
	"pawdentify/internal/ports/remote"
)

// fakeRemote implementa sólo lo que usan los tests; el resto entra en pánico por la interfaz nil.
type fakeRemote struct {
	remote.Service

	mu        sync.Mutex
	users     map[string]profile.User
	created   []profile.User
	updated   []profile.UserUpdate
	favorites []string
	feedback  []feedback.Feedback
	community []feedback.CommunityFeedback
	failWith  error
	// onSubmit corre después de aceptar cada feedback, sin el lock tomado.
	onSubmit func()
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{users: map[string]profile.User{}}
}

func (f *fakeRemote) GetUser(_ context.Context, id string) (profile.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return profile.User{}, false, f.failWith
	}
	u, ok := f.users[id]
	if ok {
		u.FavoriteBreeds = append([]string{}, f.favorites...)
	}
	return u, ok, nil
}

func (f *fakeRemote) CreateUser(_ context.Context, u profile.User) (profile.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return profile.User{}, f.failWith
	}
	f.users[u.ID] = u
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeRemote) UpdateUser(_ context.Context, id string, up profile.UserUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.users[id] = f.users[id].Apply(up)
	f.updated = append(f.updated, up)
	return nil
}

func (f *fakeRemote) AddFavorite(_ context.Context, _ string, breed string) (profile.FavoriteBreed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return profile.FavoriteBreed{}, f.failWith
	}
	f.favorites = append(f.favorites, breed)
	return profile.FavoriteBreed{ID: profile.FavoriteID(breed), Breed: breed, Timestamp: testNow}, nil
}

func (f *fakeRemote) RemoveFavorite(_ context.Context, _ string, breed string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	out := f.favorites[:0]
	for _, b := range f.favorites {
		if b != breed {
			out = append(out, b)
		}
	}
	f.favorites = out
	return nil
}

func (f *fakeRemote) SubmitFeedback(_ context.Context, _ string, fb feedback.Feedback) (feedback.Feedback, error) {
	f.mu.Lock()
	if f.failWith != nil {
		f.mu.Unlock()
		return feedback.Feedback{}, f.failWith
	}
	fb.Queued = false
	f.feedback = append(f.feedback, fb)
	hook := f.onSubmit
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return fb, nil
}

func (f *fakeRemote) SubmitCommunityFeedback(_ context.Context, _ string, c feedback.CommunityFeedback) (feedback.CommunityFeedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return feedback.CommunityFeedback{}, f.failWith
	}
	c.Queued = false
	f.community = append(f.community, c)
	return c, nil
}

func (f *fakeRemote) fail(err error) {
	f.mu.Lock()
	f.failWith = err
	f.mu.Unlock()
}
