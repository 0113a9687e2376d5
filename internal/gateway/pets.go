package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pawdentify/internal/domain/pets"
)

func petID(p pets.Pet) string { return p.ID }

func vaccinationID(v pets.Vaccination) string { return v.ID }

func (g *Gateway) ListPets(ctx context.Context, userID string) ([]pets.Pet, error) {
	return read(ctx, g, "list pets",
		func(ctx context.Context) ([]pets.Pet, error) {
			list, err := g.remote.ListPets(ctx, userID)
			if err != nil {
				return nil, err
			}
			if list == nil {
				list = []pets.Pet{}
			}
			g.mirror("list pets", g.local.SavePets(ctx, userID, list))
			return list, nil
		},
		func(ctx context.Context) ([]pets.Pet, error) {
			return g.local.Pets(ctx, userID)
		},
	)
}

func (g *Gateway) CreatePet(ctx context.Context, userID string, in pets.CreateInput) (Write[pets.Pet], error) {
	p, err := pets.NewPet(userID, in, g.now())
	if err != nil {
		return Write[pets.Pet]{}, invalid("create pet", err)
	}
	return write(ctx, g, "create pet",
		func(ctx context.Context) (pets.Pet, error) {
			created, err := g.remote.CreatePet(ctx, userID, p)
			if err != nil {
				return pets.Pet{}, err
			}
			if created.ID == "" {
				created.ID = uuid.NewString()
			}
			g.mirror("create pet", g.upsertPet(ctx, userID, created))
			return created, nil
		},
		func(ctx context.Context) (pets.Pet, error) {
			p.ID = uuid.NewString()
			return p, g.upsertPet(ctx, userID, p)
		},
	)
}

func (g *Gateway) upsertPet(ctx context.Context, userID string, p pets.Pet) error {
	list, err := g.local.Pets(ctx, userID)
	if err != nil {
		return err
	}
	return g.local.SavePets(ctx, userID, upsertBy(list, p, petID))
}

// UpdatePet aplica el cambio y devuelve la mascota resultante. Si la copia local no la
// tiene se vuelve a pedir la lista al servidor.
func (g *Gateway) UpdatePet(ctx context.Context, userID, id string, in pets.UpdateInput) (Write[pets.Pet], error) {
	if strings.TrimSpace(id) == "" {
		return Write[pets.Pet]{}, invalid("update pet", pets.ErrInvalidInput)
	}
	// validar antes de tocar la red
	if _, err := pets.ApplyUpdate(pets.Pet{}, in, g.now()); err != nil {
		return Write[pets.Pet]{}, invalid("update pet", err)
	}
	applyLocal := func(ctx context.Context) (pets.Pet, error) {
		list, err := g.local.Pets(ctx, userID)
		if err != nil {
			return pets.Pet{}, err
		}
		p, ok := findBy(list, id, petID)
		if !ok {
			return pets.Pet{}, fmt.Errorf("pet %s: %w", id, pets.ErrNotFound)
		}
		if p, err = pets.ApplyUpdate(p, in, g.now()); err != nil {
			return pets.Pet{}, invalid("update pet", err)
		}
		return p, g.local.SavePets(ctx, userID, upsertBy(list, p, petID))
	}
	return write(ctx, g, "update pet",
		func(ctx context.Context) (pets.Pet, error) {
			if err := g.remote.UpdatePet(ctx, userID, id, in); err != nil {
				return pets.Pet{}, err
			}
			if p, err := applyLocal(ctx); err == nil {
				return p, nil
			}
			list, err := g.remote.ListPets(ctx, userID)
			if err != nil {
				return pets.Pet{}, err
			}
			g.mirror("update pet", g.local.SavePets(ctx, userID, list))
			p, ok := findBy(list, id, petID)
			if !ok {
				return pets.Pet{}, fmt.Errorf("pet %s: %w", id, pets.ErrNotFound)
			}
			return p, nil
		},
		applyLocal,
	)
}

// DeletePet borra la mascota y sus vacunas de la copia local.
func (g *Gateway) DeletePet(ctx context.Context, userID, id string) (Write[string], error) {
	if strings.TrimSpace(id) == "" {
		return Write[string]{}, invalid("delete pet", pets.ErrInvalidInput)
	}
	deleteLocal := func(ctx context.Context, mustExist bool) error {
		list, err := g.local.Pets(ctx, userID)
		if err != nil {
			return err
		}
		if _, ok := findBy(list, id, petID); !ok {
			if mustExist {
				return fmt.Errorf("pet %s: %w", id, pets.ErrNotFound)
			}
			return nil
		}
		out := make([]pets.Pet, 0, len(list))
		for _, p := range list {
			if p.ID != id {
				out = append(out, p)
			}
		}
		if err := g.local.SavePets(ctx, userID, out); err != nil {
			return err
		}
		vs, err := g.local.Vaccinations(ctx, userID)
		if err != nil {
			return err
		}
		kept := make([]pets.Vaccination, 0, len(vs))
		for _, v := range vs {
			if v.PetID != id {
				kept = append(kept, v)
			}
		}
		return g.local.SaveVaccinations(ctx, userID, kept)
	}
	return write(ctx, g, "delete pet",
		func(ctx context.Context) (string, error) {
			if err := g.remote.DeletePet(ctx, userID, id); err != nil {
				return "", err
			}
			g.mirror("delete pet", deleteLocal(ctx, false))
			return id, nil
		},
		func(ctx context.Context) (string, error) {
			return id, deleteLocal(ctx, true)
		},
	)
}

// ListVaccinations con petID vacío devuelve todas las del usuario.
func (g *Gateway) ListVaccinations(ctx context.Context, userID, pet string) ([]pets.Vaccination, error) {
	pet = strings.TrimSpace(pet)
	return read(ctx, g, "list vaccinations",
		func(ctx context.Context) ([]pets.Vaccination, error) {
			list, err := g.remote.ListVaccinations(ctx, userID, pet)
			if err != nil {
				return nil, err
			}
			if list == nil {
				list = []pets.Vaccination{}
			}
			g.mirror("list vaccinations", g.cacheVaccinations(ctx, userID, pet, list))
			return list, nil
		},
		func(ctx context.Context) ([]pets.Vaccination, error) {
			list, err := g.local.Vaccinations(ctx, userID)
			if err != nil {
				return nil, err
			}
			return pets.ForPet(list, pet), nil
		},
	)
}

// cacheVaccinations reemplaza la copia local completa o sólo las de una mascota.
func (g *Gateway) cacheVaccinations(ctx context.Context, userID, pet string, list []pets.Vaccination) error {
	if pet == "" {
		return g.local.SaveVaccinations(ctx, userID, list)
	}
	cur, err := g.local.Vaccinations(ctx, userID)
	if err != nil {
		return err
	}
	out := make([]pets.Vaccination, 0, len(cur)+len(list))
	for _, v := range cur {
		if v.PetID != pet {
			out = append(out, v)
		}
	}
	return g.local.SaveVaccinations(ctx, userID, append(out, list...))
}

func (g *Gateway) CreateVaccination(ctx context.Context, userID string, in pets.VaccinationInput) (Write[pets.Vaccination], error) {
	v, err := pets.NewVaccination(userID, in, g.now())
	if err != nil {
		return Write[pets.Vaccination]{}, invalid("create vaccination", err)
	}
	return write(ctx, g, "create vaccination",
		func(ctx context.Context) (pets.Vaccination, error) {
			created, err := g.remote.CreateVaccination(ctx, userID, v)
			if err != nil {
				return pets.Vaccination{}, err
			}
			if created.ID == "" {
				created.ID = uuid.NewString()
			}
			g.mirror("create vaccination", g.upsertVaccination(ctx, userID, created))
			return created, nil
		},
		func(ctx context.Context) (pets.Vaccination, error) {
			v.ID = uuid.NewString()
			return v, g.upsertVaccination(ctx, userID, v)
		},
	)
}

func (g *Gateway) upsertVaccination(ctx context.Context, userID string, v pets.Vaccination) error {
	list, err := g.local.Vaccinations(ctx, userID)
	if err != nil {
		return err
	}
	return g.local.SaveVaccinations(ctx, userID, upsertBy(list, v, vaccinationID))
}

func (g *Gateway) UpdateVaccinationStatus(ctx context.Context, userID, id string, up pets.StatusUpdate) (Write[pets.Vaccination], error) {
	if strings.TrimSpace(id) == "" || !up.Status.Valid() {
		return Write[pets.Vaccination]{}, invalid("update vaccination status", pets.ErrInvalidInput)
	}
	applyLocal := func(ctx context.Context) (pets.Vaccination, error) {
		list, err := g.local.Vaccinations(ctx, userID)
		if err != nil {
			return pets.Vaccination{}, err
		}
		v, ok := findBy(list, id, vaccinationID)
		if !ok {
			return pets.Vaccination{}, fmt.Errorf("vaccination %s: %w", id, pets.ErrNotFound)
		}
		if v, err = pets.ApplyStatus(v, up, g.now()); err != nil {
			return pets.Vaccination{}, invalid("update vaccination status", err)
		}
		return v, g.local.SaveVaccinations(ctx, userID, upsertBy(list, v, vaccinationID))
	}
	return write(ctx, g, "update vaccination status",
		func(ctx context.Context) (pets.Vaccination, error) {
			if err := g.remote.UpdateVaccinationStatus(ctx, userID, id, up); err != nil {
				return pets.Vaccination{}, err
			}
			if v, err := applyLocal(ctx); err == nil {
				return v, nil
			}
			list, err := g.remote.ListVaccinations(ctx, userID, "")
			if err != nil {
				return pets.Vaccination{}, err
			}
			g.mirror("update vaccination status", g.local.SaveVaccinations(ctx, userID, list))
			v, ok := findBy(list, id, vaccinationID)
			if !ok {
				return pets.Vaccination{}, fmt.Errorf("vaccination %s: %w", id, pets.ErrNotFound)
			}
			return v, nil
		},
		applyLocal,
	)
}

// UpcomingVaccinations usa 30 días si days <= 0.
func (g *Gateway) UpcomingVaccinations(ctx context.Context, userID string, days int) ([]pets.Vaccination, error) {
	if days <= 0 {
		days = 30
	}
	return read(ctx, g, "upcoming vaccinations",
		func(ctx context.Context) ([]pets.Vaccination, error) {
			return nonNilList(g.remote.UpcomingVaccinations(ctx, userID, days))
		},
		func(ctx context.Context) ([]pets.Vaccination, error) {
			list, err := g.local.Vaccinations(ctx, userID)
			if err != nil {
				return nil, err
			}
			return pets.Upcoming(list, g.now(), days), nil
		},
	)
}

func (g *Gateway) OverdueVaccinations(ctx context.Context, userID string) ([]pets.Vaccination, error) {
	return read(ctx, g, "overdue vaccinations",
		func(ctx context.Context) ([]pets.Vaccination, error) {
			return nonNilList(g.remote.OverdueVaccinations(ctx, userID))
		},
		func(ctx context.Context) ([]pets.Vaccination, error) {
			list, err := g.local.Vaccinations(ctx, userID)
			if err != nil {
				return nil, err
			}
			return pets.Overdue(list, g.now()), nil
		},
	)
}

func (g *Gateway) VaccinationStatistics(ctx context.Context, userID string) (pets.VaccinationStats, error) {
	return read(ctx, g, "vaccination statistics",
		func(ctx context.Context) (pets.VaccinationStats, error) {
			return g.remote.VaccinationStats(ctx, userID)
		},
		func(ctx context.Context) (pets.VaccinationStats, error) {
			list, err := g.local.Vaccinations(ctx, userID)
			if err != nil {
				return pets.VaccinationStats{}, err
			}
			return pets.Stats(list, g.now()), nil
		},
	)
}

func nonNilList[T any](list []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}
