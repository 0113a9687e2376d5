package pawapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"pawdentify/internal/domain/pets"
)

func setPetID(p *pets.Pet, id string) bool {
	if p.ID != "" {
		return false
	}
	p.ID = id
	return true
}

func setVaccinationID(v *pets.Vaccination, id string) bool {
	if v.ID != "" {
		return false
	}
	v.ID = id
	return true
}

func (c *Client) ListPets(ctx context.Context, userID string) ([]pets.Pet, error) {
	raw, err := c.get(ctx, "/api/pets", userID, nil)
	if err != nil {
		return nil, fmt.Errorf("pawapi list pets: %w", err)
	}
	return decodeEntities(raw, setPetID, "pets")
}

func (c *Client) CreatePet(ctx context.Context, userID string, p pets.Pet) (pets.Pet, error) {
	raw, err := c.do(ctx, call{method: http.MethodPost, path: "/api/pets", userID: userID, body: p})
	if err != nil {
		return pets.Pet{}, fmt.Errorf("pawapi create pet: %w", err)
	}
	created, err := decodeEntity(unwrap(raw, "pet"), setPetID)
	if err != nil {
		return pets.Pet{}, err
	}
	if strings.TrimSpace(created.Name) == "" {
		// respuesta sin entidad: completar con lo enviado
		id := created.ID
		created = p
		created.ID = id
	}
	return created, nil
}

func (c *Client) UpdatePet(ctx context.Context, userID, petID string, in pets.UpdateInput) error {
	_, err := c.do(ctx, call{
		method: http.MethodPut,
		path:   "/api/pets/" + url.PathEscape(petID),
		userID: userID,
		body:   in,
	})
	if err != nil {
		return fmt.Errorf("pawapi update pet: %w", err)
	}
	return nil
}

func (c *Client) DeletePet(ctx context.Context, userID, petID string) error {
	_, err := c.do(ctx, call{method: http.MethodDelete, path: "/api/pets/" + url.PathEscape(petID), userID: userID})
	if err != nil {
		return fmt.Errorf("pawapi delete pet: %w", err)
	}
	return nil
}

func (c *Client) ListVaccinations(ctx context.Context, userID, petID string) ([]pets.Vaccination, error) {
	q := url.Values{}
	if petID = strings.TrimSpace(petID); petID != "" {
		q.Set("pet_id", petID)
	}
	raw, err := c.get(ctx, "/api/vaccinations", userID, q)
	if err != nil {
		return nil, fmt.Errorf("pawapi list vaccinations: %w", err)
	}
	return decodeEntities(raw, setVaccinationID, "vaccinations")
}

func (c *Client) CreateVaccination(ctx context.Context, userID string, v pets.Vaccination) (pets.Vaccination, error) {
	raw, err := c.do(ctx, call{method: http.MethodPost, path: "/api/vaccinations", userID: userID, body: v})
	if err != nil {
		return pets.Vaccination{}, fmt.Errorf("pawapi create vaccination: %w", err)
	}
	created, err := decodeEntity(unwrap(raw, "vaccination"), setVaccinationID)
	if err != nil {
		return pets.Vaccination{}, err
	}
	if strings.TrimSpace(created.VaccineName) == "" {
		id := created.ID
		created = v
		created.ID = id
	}
	return created, nil
}

func (c *Client) UpdateVaccinationStatus(ctx context.Context, userID, vaccinationID string, up pets.StatusUpdate) error {
	_, err := c.do(ctx, call{
		method: http.MethodPut,
		path:   "/api/vaccinations/" + url.PathEscape(vaccinationID) + "/status",
		userID: userID,
		body:   up,
	})
	if err != nil {
		return fmt.Errorf("pawapi update vaccination status: %w", err)
	}
	return nil
}

func (c *Client) UpcomingVaccinations(ctx context.Context, userID string, days int) ([]pets.Vaccination, error) {
	raw, err := c.get(ctx, "/api/vaccinations/upcoming", userID, url.Values{"days_ahead": {strconv.Itoa(days)}})
	if err != nil {
		return nil, fmt.Errorf("pawapi upcoming vaccinations: %w", err)
	}
	return decodeEntities(raw, setVaccinationID, "vaccinations")
}

func (c *Client) OverdueVaccinations(ctx context.Context, userID string) ([]pets.Vaccination, error) {
	raw, err := c.get(ctx, "/api/vaccinations/overdue", userID, nil)
	if err != nil {
		return nil, fmt.Errorf("pawapi overdue vaccinations: %w", err)
	}
	return decodeEntities(raw, setVaccinationID, "vaccinations")
}

func (c *Client) VaccinationStats(ctx context.Context, userID string) (pets.VaccinationStats, error) {
	raw, err := c.get(ctx, "/api/vaccinations/statistics", userID, nil)
	if err != nil {
		return pets.VaccinationStats{}, fmt.Errorf("pawapi vaccination stats: %w", err)
	}
	st, err := decodeEntity[pets.VaccinationStats](raw, nil)
	if err != nil {
		return pets.VaccinationStats{}, err
	}
	return st, nil
}
